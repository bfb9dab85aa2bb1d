package device

import (
	"fmt"
	"strings"
)

// TV bounds and defaults.
const (
	MinVolume  = 0
	MaxVolume  = 100
	MinChannel = 1

	DefaultVolume  = 10
	DefaultChannel = 1
)

// DefaultTVSources is used when no allow-list is configured.
var DefaultTVSources = []string{"HDMI1", "HDMI2", "TV", "AV"}

// TV is a television with an input selector restricted to an allow-list.
type TV struct {
	base
	on      bool
	volume  int
	channel int
	source  string
	sources []string
}

// NewTV returns a TV that is off, tuned to channel 1 on the first allowed source.
func NewTV(id, room string, sources []string) *TV {
	if len(sources) == 0 {
		sources = DefaultTVSources
	}
	allowed := make([]string, len(sources))
	copy(allowed, sources)
	return &TV{
		base:    base{id: id, room: room},
		volume:  DefaultVolume,
		channel: DefaultChannel,
		source:  allowed[0],
		sources: allowed,
	}
}

func (t *TV) Kind() Kind { return KindTV }

func (t *TV) IsOn() bool { return t.on }

func (t *TV) SetPower(on bool) { t.on = on }

func (t *TV) Volume() int  { return t.volume }
func (t *TV) Channel() int { return t.channel }
func (t *TV) Source() string {
	return t.source
}

// Sources returns a copy of the allow-list.
func (t *TV) Sources() []string {
	out := make([]string, len(t.sources))
	copy(out, t.sources)
	return out
}

// SetVolume clamps v into [MinVolume, MaxVolume].
func (t *TV) SetVolume(v int) int {
	t.volume = clampInt(v, MinVolume, MaxVolume)
	return t.volume
}

// SetChannel floors v at MinChannel. There is no upper bound.
func (t *TV) SetChannel(v int) int {
	if v < MinChannel {
		v = MinChannel
	}
	t.channel = v
	return t.channel
}

// SetSource selects an input. Matching is case-insensitive and the
// allow-list spelling is stored.
func (t *TV) SetSource(s string) (string, error) {
	for _, allowed := range t.sources {
		if strings.EqualFold(allowed, strings.TrimSpace(s)) {
			t.source = allowed
			return allowed, nil
		}
	}
	return t.source, fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidSource, s, strings.Join(t.sources, ", "))
}

func (t *TV) Status() Status {
	return Status{
		{"power", t.on},
		{"volume", t.volume},
		{"channel", t.channel},
		{"source", t.source},
	}
}

func (t *TV) StatusLines() []string {
	return []string{
		"Power: " + onOff(t.on),
		fmt.Sprintf("Volume: %d", t.volume),
		fmt.Sprintf("Channel: %d", t.channel),
		"Source: " + t.source,
	}
}
