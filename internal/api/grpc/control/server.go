package control

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/green-sentinel/internal/domain/alarm"
	"github.com/oshokin/green-sentinel/internal/logger"
	"github.com/oshokin/green-sentinel/internal/pipeline"
	"github.com/oshokin/green-sentinel/internal/version"
)

// Service abstracts the pipeline operations the transport layer depends on.
type Service interface {
	Stop(actor *alarm.Actor)
	Status() *pipeline.Status
}

// Server implements ControlServer.
type Server struct {
	// service is the running pipeline.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// Stop queues a stop command. The returned status is taken right after queueing,
// so it may still report the alarm as triggering.
func (s *Server) Stop(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	if request == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	actorValue, ok := request.GetFields()[fieldActor]
	if !ok || actorValue.GetStructValue() == nil {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	actor := ActorFromProto(actorValue.GetStructValue())
	if actor == nil {
		return nil, status.Error(codes.InvalidArgument, "actor must name a host or a user")
	}

	logger.InfoKV(ctx, "Stop requested over control API", "actor", actor.String())
	s.service.Stop(actor)

	return s.status()
}

// GetStatus returns the current pipeline status.
func (s *Server) GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return s.status()
}

func (s *Server) status() (*structpb.Struct, error) {
	response, err := StatusToProto(s.service.Status())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	response.Fields[fieldVersion] = structpb.NewStringValue(version.Short())

	return response, nil
}
