package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted domain types. Ephemeral types (Passage,
// Blueprint) are intentionally absent: they never reach storage.
var (
	IDMUS           = idMUS{}
	TopicMUS        = topicMUS{}
	SourceUnitMUS   = sourceUnitMUS{}
	EntityMUS       = entityMUS{}
	RelationshipMUS = relationshipMUS{}
	PipelineRunMUS  = pipelineRunMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

// Timestamps are stored as microseconds since the Unix epoch and restored
// in UTC.

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) ([]float32, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length == 0 {
		return nil, n, nil
	}
	v := make([]float32, length)
	for i := 0; i < length; i++ {
		f, fn, err := raw.Float32.Unmarshal(bs[n:])
		n += fn
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func sizeVector(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

type topicMUS struct{}

func (topicMUS) Marshal(t Topic, bs []byte) int {
	n := ord.String.Marshal(t.Name, bs)
	n += ord.String.Marshal(string(t.Domain), bs[n:])
	n += ord.Bool.Marshal(t.IsNew, bs[n:])
	n += marshalTime(t.InsertedAt, bs[n:])
	n += marshalTime(t.UpdatedAt, bs[n:])
	return n
}

func (topicMUS) Unmarshal(bs []byte) (t Topic, n int, err error) {
	var dn int
	if t.Name, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	var domain string
	if domain, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return t, n + dn, err
	}
	t.Domain = Domain(domain)
	n += dn
	if t.IsNew, dn, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return t, n + dn, err
	}
	n += dn
	if t.InsertedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return t, n + dn, err
	}
	n += dn
	if t.UpdatedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return t, n + dn, err
	}
	n += dn
	return t, n, nil
}

func (topicMUS) Size(t Topic) int {
	return ord.String.Size(t.Name) +
		ord.String.Size(string(t.Domain)) +
		ord.Bool.Size(t.IsNew) +
		sizeTime(t.InsertedAt) +
		sizeTime(t.UpdatedAt)
}

type sourceUnitMUS struct{}

func (sourceUnitMUS) Marshal(u SourceUnit, bs []byte) int {
	n := IDMUS.Marshal(u.Fingerprint, bs)
	n += ord.String.Marshal(u.Topic, bs[n:])
	n += ord.String.Marshal(u.Origin, bs[n:])
	n += ord.String.Marshal(string(u.Modality), bs[n:])
	n += marshalTime(u.InsertedAt, bs[n:])
	return n
}

func (sourceUnitMUS) Unmarshal(bs []byte) (u SourceUnit, n int, err error) {
	var dn int
	if u.Fingerprint, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if u.Topic, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return u, n + dn, err
	}
	n += dn
	if u.Origin, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return u, n + dn, err
	}
	n += dn
	var modality string
	if modality, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return u, n + dn, err
	}
	u.Modality = Modality(modality)
	n += dn
	if u.InsertedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return u, n + dn, err
	}
	n += dn
	return u, n, nil
}

func (sourceUnitMUS) Size(u SourceUnit) int {
	return IDMUS.Size(u.Fingerprint) +
		ord.String.Size(u.Topic) +
		ord.String.Size(u.Origin) +
		ord.String.Size(string(u.Modality)) +
		sizeTime(u.InsertedAt)
}

type entityMUS struct{}

func (entityMUS) Marshal(e Entity, bs []byte) int {
	n := IDMUS.Marshal(e.Id, bs)
	n += ord.String.Marshal(e.Topic, bs[n:])
	n += ord.String.Marshal(e.Name, bs[n:])
	n += ord.String.Marshal(e.Canonical, bs[n:])
	n += ord.String.Marshal(e.Description, bs[n:])
	n += marshalVector(e.Vector, bs[n:])
	n += ord.Bool.Marshal(e.EmbedStale, bs[n:])
	n += marshalTime(e.InsertedAt, bs[n:])
	n += marshalTime(e.UpdatedAt, bs[n:])
	return n
}

func (entityMUS) Unmarshal(bs []byte) (e Entity, n int, err error) {
	var dn int
	if e.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if e.Topic, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.Name, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.Canonical, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.Description, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.Vector, dn, err = unmarshalVector(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.EmbedStale, dn, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.InsertedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.UpdatedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	return e, n, nil
}

func (entityMUS) Size(e Entity) int {
	return IDMUS.Size(e.Id) +
		ord.String.Size(e.Topic) +
		ord.String.Size(e.Name) +
		ord.String.Size(e.Canonical) +
		ord.String.Size(e.Description) +
		sizeVector(e.Vector) +
		ord.Bool.Size(e.EmbedStale) +
		sizeTime(e.InsertedAt) +
		sizeTime(e.UpdatedAt)
}

type relationshipMUS struct{}

func (relationshipMUS) Marshal(r Relationship, bs []byte) int {
	n := IDMUS.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.Topic, bs[n:])
	n += IDMUS.Marshal(r.SourceId, bs[n:])
	n += IDMUS.Marshal(r.TargetId, bs[n:])
	n += ord.String.Marshal(r.Description, bs[n:])
	n += IDMUS.Marshal(r.DescFingerprint, bs[n:])
	n += marshalVector(r.Vector, bs[n:])
	n += marshalTime(r.InsertedAt, bs[n:])
	return n
}

func (relationshipMUS) Unmarshal(bs []byte) (r Relationship, n int, err error) {
	var dn int
	if r.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.Topic, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.SourceId, dn, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.TargetId, dn, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.Description, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.DescFingerprint, dn, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.Vector, dn, err = unmarshalVector(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.InsertedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	return r, n, nil
}

func (relationshipMUS) Size(r Relationship) int {
	return IDMUS.Size(r.Id) +
		ord.String.Size(r.Topic) +
		IDMUS.Size(r.SourceId) +
		IDMUS.Size(r.TargetId) +
		ord.String.Size(r.Description) +
		IDMUS.Size(r.DescFingerprint) +
		sizeVector(r.Vector) +
		sizeTime(r.InsertedAt)
}

func marshalToolExecution(e ToolExecution, bs []byte) int {
	n := ord.String.Marshal(e.Tool, bs)
	n += varint.Int.Marshal(int(e.Status), bs[n:])
	n += ord.String.Marshal(e.Error, bs[n:])
	n += marshalTime(e.StartedAt, bs[n:])
	n += marshalTime(e.FinishedAt, bs[n:])
	return n
}

func unmarshalToolExecution(bs []byte) (e ToolExecution, n int, err error) {
	var dn int
	if e.Tool, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	var status int
	if status, dn, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return e, n + dn, err
	}
	e.Status = ToolStatus(status)
	n += dn
	if e.Error, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.StartedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	if e.FinishedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return e, n + dn, err
	}
	n += dn
	return e, n, nil
}

func sizeToolExecution(e ToolExecution) int {
	return ord.String.Size(e.Tool) +
		varint.Int.Size(int(e.Status)) +
		ord.String.Size(e.Error) +
		sizeTime(e.StartedAt) +
		sizeTime(e.FinishedAt)
}

func marshalUnitOutcome(o UnitOutcome, bs []byte) int {
	n := IDMUS.Marshal(o.Unit, bs)
	n += ord.String.Marshal(o.Origin, bs[n:])
	n += ord.String.Marshal(o.Tool, bs[n:])
	n += varint.Int.Marshal(int(o.Status), bs[n:])
	n += ord.String.Marshal(o.Error, bs[n:])
	return n
}

func unmarshalUnitOutcome(bs []byte) (o UnitOutcome, n int, err error) {
	var dn int
	if o.Unit, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if o.Origin, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return o, n + dn, err
	}
	n += dn
	if o.Tool, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return o, n + dn, err
	}
	n += dn
	var status int
	if status, dn, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return o, n + dn, err
	}
	o.Status = UnitStatus(status)
	n += dn
	if o.Error, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return o, n + dn, err
	}
	n += dn
	return o, n, nil
}

func sizeUnitOutcome(o UnitOutcome) int {
	return IDMUS.Size(o.Unit) +
		ord.String.Size(o.Origin) +
		ord.String.Size(o.Tool) +
		varint.Int.Size(int(o.Status)) +
		ord.String.Size(o.Error)
}

type pipelineRunMUS struct{}

func (pipelineRunMUS) Marshal(r PipelineRun, bs []byte) int {
	n := ord.String.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.Pipeline, bs[n:])
	n += ord.String.Marshal(r.Topic, bs[n:])
	n += varint.Int.Marshal(int(r.Status), bs[n:])
	n += varint.Int.Marshal(len(r.Tools), bs[n:])
	for _, e := range r.Tools {
		n += marshalToolExecution(e, bs[n:])
	}
	n += varint.Int.Marshal(len(r.Outcomes), bs[n:])
	for _, o := range r.Outcomes {
		n += marshalUnitOutcome(o, bs[n:])
	}
	n += ord.String.Marshal(r.Error, bs[n:])
	n += marshalTime(r.StartedAt, bs[n:])
	n += marshalTime(r.FinishedAt, bs[n:])
	return n
}

func (pipelineRunMUS) Unmarshal(bs []byte) (r PipelineRun, n int, err error) {
	var dn int
	if r.Id, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if r.Pipeline, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.Topic, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	var status int
	if status, dn, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	r.Status = RunStatus(status)
	n += dn
	var count int
	if count, dn, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if count > 0 {
		r.Tools = make([]ToolExecution, count)
		for i := 0; i < count; i++ {
			if r.Tools[i], dn, err = unmarshalToolExecution(bs[n:]); err != nil {
				return r, n + dn, err
			}
			n += dn
		}
	}
	if count, dn, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if count > 0 {
		r.Outcomes = make([]UnitOutcome, count)
		for i := 0; i < count; i++ {
			if r.Outcomes[i], dn, err = unmarshalUnitOutcome(bs[n:]); err != nil {
				return r, n + dn, err
			}
			n += dn
		}
	}
	if r.Error, dn, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.StartedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	if r.FinishedAt, dn, err = unmarshalTime(bs[n:]); err != nil {
		return r, n + dn, err
	}
	n += dn
	return r, n, nil
}

func (pipelineRunMUS) Size(r PipelineRun) int {
	size := ord.String.Size(r.Id) +
		ord.String.Size(r.Pipeline) +
		ord.String.Size(r.Topic) +
		varint.Int.Size(int(r.Status)) +
		varint.Int.Size(len(r.Tools))
	for _, e := range r.Tools {
		size += sizeToolExecution(e)
	}
	size += varint.Int.Size(len(r.Outcomes))
	for _, o := range r.Outcomes {
		size += sizeUnitOutcome(o)
	}
	return size +
		ord.String.Size(r.Error) +
		sizeTime(r.StartedAt) +
		sizeTime(r.FinishedAt)
}
