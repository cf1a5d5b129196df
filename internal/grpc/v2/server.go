package v2

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Totarae/shortlinks/internal/auth"
	"github.com/Totarae/shortlinks/internal/model"
	"github.com/Totarae/shortlinks/internal/service"
	"github.com/Totarae/shortlinks/internal/util"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCServer реализация ShortenerServer поверх сервиса ссылок.
type GRPCServer struct {
	Links   *service.ShortenerService
	BaseURL string
	Logger  *zap.Logger
	Now     func() time.Time
}

func NewGRPCServer(links *service.ShortenerService, baseURL string, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{Links: links, BaseURL: baseURL, Logger: logger, Now: time.Now}
}

// toStatus переводит ошибки сервиса в коды gRPC, внутренние детали не раскрываются.
func (s *GRPCServer) toStatus(method string, err error) error {
	switch {
	case errors.Is(err, model.ErrValidation):
		return status.Error(codes.InvalidArgument, strings.TrimPrefix(err.Error(), model.ErrValidation.Error()+": "))
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "Invalid short URL")
	case errors.Is(err, model.ErrForbidden):
		return status.Error(codes.PermissionDenied, "Access denied")
	default:
		s.Logger.Error("grpc call failed", zap.String("method", method), zap.Error(err))
		return status.Error(codes.Internal, "Server error")
	}
}

func (s *GRPCServer) Shorten(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}

	link, _, err := s.Links.Shorten(ctx, req.GetValue(), caller.ID)
	if err != nil {
		return nil, s.toStatus("Shorten", err)
	}
	return wrapperspb.String(s.BaseURL + "/url/" + link.ShortID), nil
}

func (s *GRPCServer) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if !util.IsShortID(req.GetValue()) {
		return nil, status.Error(codes.InvalidArgument, "malformed short id")
	}

	dest, err := s.Links.Resolve(ctx, req.GetValue(), s.Now())
	if err != nil {
		return nil, s.toStatus("Resolve", err)
	}
	return wrapperspb.String(dest), nil
}

func (s *GRPCServer) Analytics(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	caller, ok := auth.CallerFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if !util.IsShortID(req.GetValue()) {
		return nil, status.Error(codes.InvalidArgument, "malformed short id")
	}

	stats, err := s.Links.Analytics(ctx, caller, req.GetValue())
	if err != nil {
		return nil, s.toStatus("Analytics", err)
	}
	return wrapperspb.Int64(int64(stats.TotalClicks)), nil
}

// TokenParser проверяет токен и возвращает id пользователя.
type TokenParser interface {
	Parse(token string) (string, error)
}

// UserLookup загружает пользователя по id.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// publicMethods вызываются без токена.
var publicMethods = map[string]bool{
	methodResolve: true,
}

// AuthInterceptor берёт Bearer-токен из метаданных authorization и кладёт
// model.Caller в контекст.
func AuthInterceptor(tokens TokenParser, users UserLookup, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get("authorization")
		if len(values) == 0 || !strings.HasPrefix(values[0], "Bearer ") {
			return nil, status.Error(codes.Unauthenticated, "No token is there!")
		}

		userID, err := tokens.Parse(strings.TrimPrefix(values[0], "Bearer "))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "Issues with Token")
		}
		user, err := users.GetUserByID(ctx, userID)
		if errors.Is(err, model.ErrNotFound) {
			return nil, status.Error(codes.Unauthenticated, "User not found")
		}
		if err != nil {
			logger.Error("load caller", zap.String("user_id", userID), zap.Error(err))
			return nil, status.Error(codes.Internal, "Server error")
		}

		return handler(auth.WithCaller(ctx, model.Caller{ID: user.ID, Role: user.Role}), req)
	}
}

// LoggingInterceptor пишет в лог метод, код ответа и длительность вызова.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		log := logger.Info
		if code == codes.Internal || code == codes.Unknown {
			log = logger.Error
		}
		log("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

// NewServer собирает grpc.Server с цепочкой перехватчиков и зарегистрированным сервисом.
func NewServer(srv ShortenerServer, tokens TokenParser, users UserLookup, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		AuthInterceptor(tokens, users, logger),
	))
	s := grpc.NewServer(opts...)
	RegisterShortenerServer(s, srv)
	return s
}
