package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/oshokin/green-sentinel/internal/domain/alarm"
	"github.com/oshokin/green-sentinel/internal/pipeline"
)

// Field names of the control documents.
const (
	fieldHostname       = "hostname"
	fieldUsername       = "username"
	fieldActor          = "actor"
	fieldState          = "state"
	fieldSessionID      = "session_id"
	fieldTriggeredAt    = "triggered_at"
	fieldFallback       = "fallback"
	fieldLastSilencedAt = "last_silenced_at"
	fieldLastSilencedBy = "last_silenced_by"
	fieldGeneration     = "generation"
	fieldFramesAnalyzed = "frames_analyzed"
	fieldFramesDropped  = "frames_dropped"
	fieldVersion        = "version"
)

var (
	// ErrMalformed is returned for documents that do not follow the control schema.
	ErrMalformed = errors.New("malformed control document")
	// errUnknownState is returned for state names the client does not know.
	errUnknownState = errors.New("unknown alarm state")
)

// ActorToProto encodes an actor. A nil actor yields an empty document.
func ActorToProto(a *alarm.Actor) *structpb.Struct {
	fields := make(map[string]*structpb.Value, 2)
	if a != nil {
		fields[fieldHostname] = structpb.NewStringValue(a.Hostname)
		fields[fieldUsername] = structpb.NewStringValue(a.Username)
	}

	return &structpb.Struct{Fields: fields}
}

// ActorFromProto decodes an actor. It returns nil when neither field is set.
func ActorFromProto(m *structpb.Struct) *alarm.Actor {
	hostname := m.GetFields()[fieldHostname].GetStringValue()
	username := m.GetFields()[fieldUsername].GetStringValue()

	if hostname == "" && username == "" {
		return nil
	}

	return &alarm.Actor{Hostname: hostname, Username: username}
}

// StopRequest builds the Stop request for actor.
func StopRequest(actor *alarm.Actor) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldActor: structpb.NewStructValue(ActorToProto(actor)),
	}}
}

// StatusToProto encodes a status snapshot. Zero times and empty optional fields are omitted.
func StatusToProto(s *pipeline.Status) (*structpb.Struct, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil status", ErrMalformed)
	}

	fields := map[string]*structpb.Value{
		fieldState:          structpb.NewStringValue(s.State.String()),
		fieldFallback:       structpb.NewBoolValue(s.Fallback),
		fieldGeneration:     structpb.NewNumberValue(float64(s.Generation)),
		fieldFramesAnalyzed: structpb.NewNumberValue(float64(s.FramesAnalyzed)),
		fieldFramesDropped:  structpb.NewNumberValue(float64(s.FramesDropped)),
	}

	if s.SessionID != "" {
		fields[fieldSessionID] = structpb.NewStringValue(s.SessionID)
	}

	if s.LastSilencedBy != nil {
		fields[fieldLastSilencedBy] = structpb.NewStructValue(ActorToProto(s.LastSilencedBy))
	}

	for name, t := range map[string]time.Time{
		fieldTriggeredAt:    s.TriggeredAt,
		fieldLastSilencedAt: s.LastSilencedAt,
	} {
		if t.IsZero() {
			continue
		}

		v, err := timeToValue(t)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}

		fields[name] = v
	}

	return &structpb.Struct{Fields: fields}, nil
}

// StatusFromProto decodes a status document.
func StatusFromProto(m *structpb.Struct) (*pipeline.Status, error) {
	fields := m.GetFields()

	name := fields[fieldState].GetStringValue()

	state, ok := alarm.ParseState(name)
	if !ok {
		return nil, fmt.Errorf("%w: %w %q", ErrMalformed, errUnknownState, name)
	}

	s := &pipeline.Status{
		State:          state,
		StateName:      state.String(),
		SessionID:      fields[fieldSessionID].GetStringValue(),
		Fallback:       fields[fieldFallback].GetBoolValue(),
		Generation:     uint64(fields[fieldGeneration].GetNumberValue()),
		FramesAnalyzed: uint64(fields[fieldFramesAnalyzed].GetNumberValue()),
		FramesDropped:  uint64(fields[fieldFramesDropped].GetNumberValue()),
	}

	if v, ok := fields[fieldLastSilencedBy]; ok {
		s.LastSilencedBy = ActorFromProto(v.GetStructValue())
	}

	var err error

	if s.TriggeredAt, err = timeFromValue(fields[fieldTriggeredAt]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fieldTriggeredAt, err)
	}

	if s.LastSilencedAt, err = timeFromValue(fields[fieldLastSilencedAt]); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fieldLastSilencedAt, err)
	}

	return s, nil
}

// VersionOf returns the sentinel version stamped on a status document.
func VersionOf(m *structpb.Struct) string {
	return m.GetFields()[fieldVersion].GetStringValue()
}

// timeToValue renders t as the canonical Timestamp JSON string.
func timeToValue(t time.Time) (*structpb.Value, error) {
	raw, err := protojson.Marshal(timestamppb.New(t))
	if err != nil {
		return nil, err
	}

	return structpb.NewStringValue(strings.Trim(string(raw), `"`)), nil
}

// timeFromValue parses a canonical Timestamp JSON string. A missing value yields the zero time.
func timeFromValue(v *structpb.Value) (time.Time, error) {
	text := v.GetStringValue()
	if text == "" {
		return time.Time{}, nil
	}

	ts := new(timestamppb.Timestamp)
	if err := protojson.Unmarshal([]byte(strconv.Quote(text)), ts); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return ts.AsTime(), nil
}
