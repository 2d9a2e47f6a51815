package waveform

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// textDoc is the human-readable, YAML-serializable form of a Calibration
// store — the format an experiment runcard embeds. yaml.v3 is already
// pulled in transitively by spf13/viper (internal/config's backend), so
// this reuses rather than adds to the dependency surface.
type textDoc struct {
	Waveforms map[string]map[string]shapeDoc `yaml:"waveforms"` // bus -> name -> shape
	Weights   map[string]map[string]weightsDoc `yaml:"weights"`
}

type shapeDoc struct {
	Kind            string    `yaml:"kind"`
	Amplitude       float64   `yaml:"amplitude,omitempty"`
	SecondAmplitude float64   `yaml:"second_amplitude,omitempty"`
	DurationNs      int64     `yaml:"duration_ns,omitempty"`
	NumSigmas       float64   `yaml:"num_sigmas,omitempty"`
	DragCoefficient float64   `yaml:"drag_coefficient,omitempty"`
	Start           float64   `yaml:"start,omitempty"`
	Stop            float64   `yaml:"stop,omitempty"`
	RiseFallNs      int64     `yaml:"rise_fall_ns,omitempty"`
	HalfTimeNs      int64     `yaml:"half_time_ns,omitempty"`
	Samples         []float64 `yaml:"samples,omitempty"`
}

type weightsDoc struct {
	I []float64 `yaml:"i"`
	Q []float64 `yaml:"q"`
}

// MarshalText serializes the store's Waveform and Weights entries (IQ
// pairs and named blocks are compiler-internal and not part of the
// runcard-editable surface) into the human-readable YAML form.
func (c *Calibration) MarshalText() ([]byte, error) {
	doc := textDoc{
		Waveforms: make(map[string]map[string]shapeDoc),
		Weights:   make(map[string]map[string]weightsDoc),
	}
	for k, e := range c.entries {
		bus, name := splitKey(k)
		switch {
		case e.waveform != nil:
			sd, err := encodeShape(e.waveform)
			if err != nil {
				continue // a shape with no text encoding (e.g. Chained): skip, not an error
			}
			if doc.Waveforms[bus] == nil {
				doc.Waveforms[bus] = make(map[string]shapeDoc)
			}
			doc.Waveforms[bus][name] = sd
		case e.weights != nil:
			if doc.Weights[bus] == nil {
				doc.Weights[bus] = make(map[string]weightsDoc)
			}
			doc.Weights[bus][name] = weightsDoc{I: e.weights.I, Q: e.weights.Q}
		}
	}
	return yaml.Marshal(doc)
}

// UnmarshalCalibrationText parses the YAML form produced by MarshalText
// into a fresh Calibration store.
func UnmarshalCalibrationText(data []byte) (*Calibration, error) {
	var doc textDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("waveform: parse calibration text: %w", err)
	}
	c := NewCalibration()
	for bus, names := range doc.Waveforms {
		for name, sd := range names {
			w, err := decodeShape(sd)
			if err != nil {
				return nil, fmt.Errorf("waveform: bus %q name %q: %w", bus, name, err)
			}
			c.SetWaveform(bus, name, w)
		}
	}
	for bus, names := range doc.Weights {
		for name, wd := range names {
			c.SetWeights(bus, name, Weights{I: wd.I, Q: wd.Q})
		}
	}
	return c, nil
}

func splitKey(k string) (bus, name string) {
	for i := 0; i < len(k); i++ {
		if k[i] == 0 {
			return k[:i], k[i+1:]
		}
	}
	return k, ""
}

func encodeShape(w Waveform) (shapeDoc, error) {
	switch t := w.(type) {
	case Square:
		return shapeDoc{Kind: "square", Amplitude: t.Amplitude, DurationNs: t.Duration}, nil
	case Gaussian:
		return shapeDoc{Kind: "gaussian", Amplitude: t.Amplitude, DurationNs: t.Duration, NumSigmas: t.NumSigmas}, nil
	case Ramp:
		return shapeDoc{Kind: "ramp", Start: t.Start, Stop: t.Stop, DurationNs: t.Duration}, nil
	case Cosine:
		return shapeDoc{Kind: "cosine", Amplitude: t.Amplitude, DurationNs: t.Duration}, nil
	case FlatTop:
		return shapeDoc{Kind: "flat_top", Amplitude: t.Amplitude, DurationNs: t.Duration, RiseFallNs: t.RiseFall}, nil
	case TwoStep:
		return shapeDoc{Kind: "two_step", Amplitude: t.FirstAmplitude, SecondAmplitude: t.SecondAmplitude, DurationNs: t.Duration}, nil
	case SuddenNetZero:
		return shapeDoc{Kind: "snz", Amplitude: t.Amplitude, DurationNs: t.Duration, HalfTimeNs: t.HalfTime}, nil
	case Arbitrary:
		return shapeDoc{Kind: "arbitrary", DurationNs: t.Duration, Samples: t.Samples}, nil
	default:
		return shapeDoc{}, fmt.Errorf("waveform: %T has no text encoding", w)
	}
}

func decodeShape(sd shapeDoc) (Waveform, error) {
	switch sd.Kind {
	case "square":
		return Square{Amplitude: sd.Amplitude, Duration: sd.DurationNs}, nil
	case "gaussian":
		return Gaussian{Amplitude: sd.Amplitude, Duration: sd.DurationNs, NumSigmas: sd.NumSigmas}, nil
	case "ramp":
		return Ramp{Start: sd.Start, Stop: sd.Stop, Duration: sd.DurationNs}, nil
	case "cosine":
		return Cosine{Amplitude: sd.Amplitude, Duration: sd.DurationNs}, nil
	case "flat_top":
		return FlatTop{Amplitude: sd.Amplitude, Duration: sd.DurationNs, RiseFall: sd.RiseFallNs}, nil
	case "two_step":
		return TwoStep{FirstAmplitude: sd.Amplitude, SecondAmplitude: sd.SecondAmplitude, Duration: sd.DurationNs}, nil
	case "snz":
		return SuddenNetZero{Amplitude: sd.Amplitude, Duration: sd.DurationNs, HalfTime: sd.HalfTimeNs}, nil
	case "arbitrary":
		return Arbitrary{Samples: sd.Samples, Duration: sd.DurationNs}, nil
	default:
		return nil, fmt.Errorf("waveform: unknown shape kind %q", sd.Kind)
	}
}
