package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-blueprints/internal/blueprint"
	"github.com/pixil98/go-blueprints/internal/chargen"
)

// Query subjects answered by the service.
const (
	SubjectResolve  = "blueprints.resolve"
	SubjectGet      = "blueprints.get"
	SubjectChildren = "blueprints.children"
	SubjectCodes    = "chargen.codes"
)

// ResolveRequest asks for one resolved property of one blueprint.
type ResolveRequest struct {
	Blueprint string `json:"blueprint"`
	Property  string `json:"property"`
}

// ResolveResponse carries the resolved value, or an error message when the
// blueprint or property does not exist.
type ResolveResponse struct {
	Blueprint string `json:"blueprint"`
	Property  string `json:"property"`
	Value     any    `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

// GetRequest asks for one blueprint's declared data.
type GetRequest struct {
	Blueprint string `json:"blueprint"`
}

// GetResponse carries a blueprint's identity and raw declarations.
type GetResponse struct {
	Blueprint string                                  `json:"blueprint"`
	Parent    string                                  `json:"parent,omitempty"`
	Path      string                                  `json:"path,omitempty"`
	Declared  map[string]map[string]map[string]string `json:"declared,omitempty"`
	Children  []string                                `json:"children,omitempty"`
	Error     string                                  `json:"error,omitempty"`
}

// QueryService answers blueprint lookups over request-reply messaging. It
// owns no data: every answer comes from the resolver it wraps.
type QueryService struct {
	server   *NatsServer
	resolver *blueprint.Resolver
	codes    *chargen.Codes
}

// QueryServiceOpt configures a QueryService.
type QueryServiceOpt func(*QueryService)

// WithCodes serves the character code tables alongside blueprint queries.
func WithCodes(codes *chargen.Codes) QueryServiceOpt {
	return func(q *QueryService) {
		q.codes = codes
	}
}

// NewQueryService wraps a resolver for request-reply access.
func NewQueryService(server *NatsServer, resolver *blueprint.Resolver, opts ...QueryServiceOpt) *QueryService {
	q := &QueryService{server: server, resolver: resolver}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start subscribes the query subjects and blocks until the context ends.
func (q *QueryService) Start(ctx context.Context) error {
	subs := map[string]func(data []byte) ([]byte, error){
		SubjectResolve:  q.handleResolve,
		SubjectGet:      q.handleGet,
		SubjectChildren: q.handleChildren,
	}
	if q.codes != nil {
		subs[SubjectCodes] = q.handleCodes
	}

	var unsubs []func()
	for subject, handler := range subs {
		// The messaging server starts concurrently; wait for it
		unsub, err := q.subscribeWhenReady(ctx, subject, handler)
		if err != nil {
			return fmt.Errorf("subscribing %s: %w", subject, err)
		}
		unsubs = append(unsubs, unsub)
	}

	slog.InfoContext(ctx, "query service ready", "subjects", len(subs))

	<-ctx.Done()
	for _, unsub := range unsubs {
		unsub()
	}
	return nil
}

func (q *QueryService) subscribeWhenReady(ctx context.Context, subject string, handler func(data []byte) ([]byte, error)) (func(), error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		unsub, err := q.server.SubscribeRequest(subject, handler)
		if err == nil {
			return unsub, nil
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-ticker.C:
		}
	}
}

func (q *QueryService) handleResolve(data []byte) ([]byte, error) {
	var req ResolveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decoding resolve request: %w", err)
	}

	resp := ResolveResponse{Blueprint: req.Blueprint, Property: req.Property}
	node := q.resolver.Tree().Get(req.Blueprint)
	if node == nil {
		resp.Error = fmt.Sprintf("unknown blueprint %q", req.Blueprint)
		return json.Marshal(resp)
	}

	val, err := q.resolver.Resolve(node, req.Property)
	if err != nil {
		resp.Error = err.Error()
		return json.Marshal(resp)
	}
	resp.Value = val
	return json.Marshal(resp)
}

func (q *QueryService) handleGet(data []byte) ([]byte, error) {
	var req GetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decoding get request: %w", err)
	}

	resp := GetResponse{Blueprint: req.Blueprint}
	node := q.resolver.Tree().Get(req.Blueprint)
	if node == nil {
		resp.Error = fmt.Sprintf("unknown blueprint %q", req.Blueprint)
		return json.Marshal(resp)
	}

	resp.Parent = node.Record.ParentID
	resp.Path = node.InheritancePath()
	resp.Declared = node.Record.Declared()
	return json.Marshal(resp)
}

func (q *QueryService) handleCodes(_ []byte) ([]byte, error) {
	return json.Marshal(q.codes)
}

func (q *QueryService) handleChildren(data []byte) ([]byte, error) {
	var req GetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decoding children request: %w", err)
	}

	resp := GetResponse{Blueprint: req.Blueprint}
	node := q.resolver.Tree().Get(req.Blueprint)
	if node == nil {
		resp.Error = fmt.Sprintf("unknown blueprint %q", req.Blueprint)
		return json.Marshal(resp)
	}

	for _, child := range node.Children {
		resp.Children = append(resp.Children, child.ID())
	}
	return json.Marshal(resp)
}
