package ir

import (
	"encoding/json"
	"fmt"
)

// wireProgram is the versioned JSON envelope for a Program. Variable
// identity (a process-local token) cannot survive a round trip through
// JSON, so variables are serialized by their Index() and operations
// reference variables by that same index; Unmarshal maps indices back to
// fresh *Variable pointers that still satisfy Equal against each other.
type wireProgram struct {
	Version   int           `json:"version"`
	ID        string        `json:"id"`
	Variables []wireVar     `json:"variables"`
	Root      json.RawMessage `json:"root"`
}

type wireVar struct {
	Index      uint64     `json:"index"`
	Label      string     `json:"label"`
	Domain     Domain     `json:"domain"`
	ScalarKind ScalarKind `json:"scalar_kind"`
}

// wireNode is the tagged-union envelope for a single Node.
type wireNode struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

const wireVersion = 1

// Marshal serializes p into the versioned wire format described above.
func Marshal(p *Program) ([]byte, error) {
	wp := wireProgram{Version: wireVersion, ID: p.ID}
	for _, v := range p.Variables {
		wp.Variables = append(wp.Variables, wireVar{
			Index: v.Index(), Label: v.Label, Domain: v.Domain, ScalarKind: v.ScalarKind,
		})
	}
	root, err := marshalNode(p.Root)
	if err != nil {
		return nil, fmt.Errorf("ir: marshal root: %w", err)
	}
	wp.Root, err = json.Marshal(wireNode{Kind: p.Root.Kind(), Data: root})
	if err != nil {
		return nil, fmt.Errorf("ir: marshal root: %w", err)
	}
	return json.Marshal(wp)
}

// MarshalJSON writes a Variable embedded in a leaf operation in the same
// wireVar form as the program's variable list, index included.
func (v *Variable) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireVar{Index: v.Index(), Label: v.Label, Domain: v.Domain, ScalarKind: v.ScalarKind})
}

// UnmarshalJSON restores a Variable with the identity token its index names.
func (v *Variable) UnmarshalJSON(data []byte) error {
	var wv wireVar
	if err := json.Unmarshal(data, &wv); err != nil {
		return err
	}
	*v = Variable{id: token(wv.Index), Label: wv.Label, Domain: wv.Domain, ScalarKind: wv.ScalarKind}
	return nil
}

// Unmarshal is the inverse of Marshal. Variable pointers in the returned
// Program are freshly allocated but Equal() to each other wherever the
// wire form shared an index.
func Unmarshal(data []byte) (*Program, error) {
	var wp wireProgram
	if err := json.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("ir: unmarshal envelope: %w", err)
	}
	if wp.Version != wireVersion {
		return nil, fmt.Errorf("ir: unsupported wire version %d", wp.Version)
	}
	byIndex := make(map[uint64]*Variable, len(wp.Variables))
	vars := make([]*Variable, 0, len(wp.Variables))
	for _, wv := range wp.Variables {
		v := &Variable{id: token(wv.Index), Label: wv.Label, Domain: wv.Domain, ScalarKind: wv.ScalarKind}
		byIndex[wv.Index] = v
		vars = append(vars, v)
	}
	root, err := unmarshalNode(wp.Root, byIndex)
	if err != nil {
		return nil, fmt.Errorf("ir: unmarshal root: %w", err)
	}
	blk, ok := root.(*Block)
	if !ok {
		return nil, fmt.Errorf("ir: root node is not a Block")
	}
	return &Program{ID: wp.ID, Variables: vars, Root: blk}, nil
}

func marshalNode(n Node) (json.RawMessage, error) {
	var data any
	switch t := n.(type) {
	case *Block:
		children := make([]wireNode, len(t.Children))
		for i, c := range t.Children {
			raw, err := marshalNode(c)
			if err != nil {
				return nil, err
			}
			children[i] = wireNode{Kind: c.Kind(), Data: raw}
		}
		data = struct {
			Children []wireNode `json:"children"`
		}{children}
	case *InfiniteLoop:
		body, err := marshalNode(t.Body)
		if err != nil {
			return nil, err
		}
		data = struct {
			Body wireNode `json:"body"`
		}{wireNode{Kind: t.Body.Kind(), Data: body}}
	case *ForLoop:
		body, err := marshalNode(t.Body)
		if err != nil {
			return nil, err
		}
		data = struct {
			VarIndex uint64   `json:"var_index"`
			Start    float64  `json:"start"`
			Stop     float64  `json:"stop"`
			Step     float64  `json:"step"`
			Body     wireNode `json:"body"`
		}{t.Var.Index(), t.Start, t.Stop, t.Step, wireNode{Kind: t.Body.Kind(), Data: body}}
	case *Loop:
		body, err := marshalNode(t.Body)
		if err != nil {
			return nil, err
		}
		data = struct {
			VarIndex uint64    `json:"var_index"`
			Values   []float64 `json:"values"`
			Body     wireNode  `json:"body"`
		}{t.Var.Index(), t.Values, wireNode{Kind: t.Body.Kind(), Data: body}}
	case *Parallel:
		branches := make([]struct {
			VarIndex uint64    `json:"var_index"`
			Values   []float64 `json:"values"`
			Body     wireNode  `json:"body"`
		}, len(t.Branches))
		for i, br := range t.Branches {
			body, err := marshalNode(br.Body)
			if err != nil {
				return nil, err
			}
			branches[i].VarIndex = br.Var.Index()
			branches[i].Values = br.Values
			branches[i].Body = wireNode{Kind: br.Body.Kind(), Data: body}
		}
		data = struct {
			Branches []struct {
				VarIndex uint64    `json:"var_index"`
				Values   []float64 `json:"values"`
				Body     wireNode  `json:"body"`
			} `json:"branches"`
		}{branches}
	case *Average:
		body, err := marshalNode(t.Body)
		if err != nil {
			return nil, err
		}
		data = struct {
			Shots int      `json:"shots"`
			Body  wireNode `json:"body"`
		}{t.Shots, wireNode{Kind: t.Body.Kind(), Data: body}}
	case *Play:
		data = t
	case *Measure:
		data = t
	case *Acquire:
		data = t
	case *Wait:
		data = t
	case *Sync:
		data = t
	case *WaitTrigger:
		data = t
	case *SetFrequency:
		data = t
	case *SetPhase:
		data = t
	case *ResetPhase:
		data = t
	case *SetGain:
		data = t
	case *SetOffset:
		data = t
	case *SetMarkers:
		data = t
	case *MeasureReset:
		data = t
	default:
		return nil, fmt.Errorf("ir: unknown node kind %v", n.Kind())
	}
	return json.Marshal(data)
}

func unmarshalNode(raw json.RawMessage, byIndex map[uint64]*Variable) (Node, error) {
	var wn wireNode
	if err := json.Unmarshal(raw, &wn); err != nil {
		return nil, err
	}
	switch wn.Kind {
	case KindBlock:
		var d struct {
			Children []wireNode `json:"children"`
		}
		if err := json.Unmarshal(wn.Data, &d); err != nil {
			return nil, err
		}
		children := make([]Node, len(d.Children))
		for i, c := range d.Children {
			raw, _ := json.Marshal(c)
			n, err := unmarshalNode(raw, byIndex)
			if err != nil {
				return nil, err
			}
			children[i] = n
		}
		return &Block{base: newBase(KindBlock), Children: children}, nil
	case KindInfiniteLoop:
		var d struct {
			Body wireNode `json:"body"`
		}
		if err := json.Unmarshal(wn.Data, &d); err != nil {
			return nil, err
		}
		raw, _ := json.Marshal(d.Body)
		body, err := unmarshalNode(raw, byIndex)
		if err != nil {
			return nil, err
		}
		return &InfiniteLoop{base: newBase(KindInfiniteLoop), Body: body.(*Block)}, nil
	case KindForLoop:
		var d struct {
			VarIndex uint64   `json:"var_index"`
			Start    float64  `json:"start"`
			Stop     float64  `json:"stop"`
			Step     float64  `json:"step"`
			Body     wireNode `json:"body"`
		}
		if err := json.Unmarshal(wn.Data, &d); err != nil {
			return nil, err
		}
		raw, _ := json.Marshal(d.Body)
		body, err := unmarshalNode(raw, byIndex)
		if err != nil {
			return nil, err
		}
		return &ForLoop{base: newBase(KindForLoop), Var: byIndex[d.VarIndex], Start: d.Start, Stop: d.Stop, Step: d.Step, Body: body.(*Block)}, nil
	case KindLoop:
		var d struct {
			VarIndex uint64    `json:"var_index"`
			Values   []float64 `json:"values"`
			Body     wireNode  `json:"body"`
		}
		if err := json.Unmarshal(wn.Data, &d); err != nil {
			return nil, err
		}
		raw, _ := json.Marshal(d.Body)
		body, err := unmarshalNode(raw, byIndex)
		if err != nil {
			return nil, err
		}
		return &Loop{base: newBase(KindLoop), Var: byIndex[d.VarIndex], Values: d.Values, Body: body.(*Block)}, nil
	case KindParallel:
		var d struct {
			Branches []struct {
				VarIndex uint64    `json:"var_index"`
				Values   []float64 `json:"values"`
				Body     wireNode  `json:"body"`
			} `json:"branches"`
		}
		if err := json.Unmarshal(wn.Data, &d); err != nil {
			return nil, err
		}
		branches := make([]ParallelBranch, len(d.Branches))
		for i, br := range d.Branches {
			raw, _ := json.Marshal(br.Body)
			body, err := unmarshalNode(raw, byIndex)
			if err != nil {
				return nil, err
			}
			branches[i] = ParallelBranch{Var: byIndex[br.VarIndex], Values: br.Values, Body: body.(*Block)}
		}
		return &Parallel{base: newBase(KindParallel), Branches: branches}, nil
	case KindAverage:
		var d struct {
			Shots int      `json:"shots"`
			Body  wireNode `json:"body"`
		}
		if err := json.Unmarshal(wn.Data, &d); err != nil {
			return nil, err
		}
		raw, _ := json.Marshal(d.Body)
		body, err := unmarshalNode(raw, byIndex)
		if err != nil {
			return nil, err
		}
		return &Average{base: newBase(KindAverage), Shots: d.Shots, Body: body.(*Block)}, nil
	case KindPlay:
		var v Play
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindPlay)
		return &v, nil
	case KindMeasure:
		var v Measure
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindMeasure)
		return &v, nil
	case KindAcquire:
		var v Acquire
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindAcquire)
		return &v, nil
	case KindWait:
		var v Wait
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindWait)
		return &v, nil
	case KindSync:
		var v Sync
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindSync)
		return &v, nil
	case KindWaitTrigger:
		var v WaitTrigger
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindWaitTrigger)
		return &v, nil
	case KindSetFrequency:
		var v SetFrequency
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindSetFrequency)
		return &v, nil
	case KindSetPhase:
		var v SetPhase
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindSetPhase)
		return &v, nil
	case KindResetPhase:
		var v ResetPhase
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindResetPhase)
		return &v, nil
	case KindSetGain:
		var v SetGain
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindSetGain)
		return &v, nil
	case KindSetOffset:
		var v SetOffset
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindSetOffset)
		return &v, nil
	case KindSetMarkers:
		var v SetMarkers
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindSetMarkers)
		return &v, nil
	case KindMeasureReset:
		var v MeasureReset
		if err := json.Unmarshal(wn.Data, &v); err != nil {
			return nil, err
		}
		v.base = newBase(KindMeasureReset)
		return &v, nil
	default:
		return nil, fmt.Errorf("ir: unknown wire kind %v", wn.Kind)
	}
}
