package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/velumani/cloudauth"
)

// Verifier checks a bearer token and returns the claims it carries.
// *cloudauth.TokenIssuer satisfies this interface.
type Verifier interface {
	Verify(token string) (*cloudauth.Claims, *cloudauth.AuthError)
}

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Config holds the metadata key configuration.
	*Config

	// RequireAuth when true rejects requests without a valid token.
	// When false, requests proceed but ClaimsFromContext returns nil.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Only used when RequireAuth is true.
	// Keys should be full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// DefaultInterceptorConfig returns a config that requires auth for all methods.
func DefaultInterceptorConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
}

// NewPublicMethodsConfig creates a config with the specified public methods.
func NewPublicMethodsConfig(publicMethods ...string) *InterceptorConfig {
	config := DefaultInterceptorConfig()
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
func OptionalAuthConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		RequireAuth:   false,
		PublicMethods: make(map[string]bool),
	}
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that verifies
// bearer tokens from metadata and attaches the claims to the context.
func UnaryAuthInterceptor(verifier Verifier, config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config = normalizeConfig(config)

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		ctx, err := authenticate(ctx, verifier, config, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns a gRPC stream interceptor that verifies
// bearer tokens from metadata and attaches the claims to the stream context.
func StreamAuthInterceptor(verifier Verifier, config *InterceptorConfig) grpc.StreamServerInterceptor {
	config = normalizeConfig(config)

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), verifier, config, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &claimsServerStream{ServerStream: ss, ctx: ctx})
	}
}

// authenticate extracts and verifies the token for one call. On success the
// returned context carries the claims; public methods and optional-auth mode
// pass through without claims when no valid token is present.
func authenticate(ctx context.Context, verifier Verifier, config *InterceptorConfig, fullMethod string) (context.Context, error) {
	required := config.RequireAuth && !config.PublicMethods[fullMethod]

	token := tokenFromMetadata(ctx, config.Config.MetadataKeyToken)
	if token == "" {
		if required {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		return ctx, nil
	}

	claims, authErr := verifier.Verify(token)
	if authErr != nil {
		if required {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return ctx, nil
	}

	return WithClaims(ctx, claims), nil
}

func normalizeConfig(config *InterceptorConfig) *InterceptorConfig {
	if config == nil {
		config = DefaultInterceptorConfig()
	}
	if config.Config == nil {
		config.Config = DefaultConfig()
	}
	config.Config.EnsureDefaults()
	if config.PublicMethods == nil {
		config.PublicMethods = make(map[string]bool)
	}
	return config
}

// claimsServerStream overrides the stream context so handlers see the claims.
type claimsServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *claimsServerStream) Context() context.Context {
	return s.ctx
}
