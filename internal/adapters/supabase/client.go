package supabaseadapter

import (
	"encoding/json"
	"fmt"
	"strings"

	postgrest "github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("constructtrack/supabase")

// RestClient is the PostgREST surface used by the repositories. Both
// *supabase.Client and *postgrest.Client satisfy it.
type RestClient interface {
	From(table string) *postgrest.QueryBuilder
	Rpc(name, count string, rpcBody interface{}) string
}

// New creates a Supabase client for the given project URL and anon key.
func New(url, anonKey, schema string) (*supabase.Client, error) {
	client, err := supabase.NewClient(url, anonKey, &supabase.ClientOptions{
		Schema: schema,
		Headers: map[string]string{
			"X-Client-Info": "constructtrack-api",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return client, nil
}

// RPCError is the error body PostgREST returns for failed function calls.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint"`
	Details string `json:"details"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("(%s) %s", e.Code, e.Message)
}

// functionNotFound is PostgREST's code for an unknown rpc.
const functionNotFound = "PGRST202"

// callRPC invokes a Postgres function and decodes its JSON result into out.
// Rpc reports failures only through the response body, so an object
// carrying a code is treated as an error.
func callRPC(c RestClient, name string, args any, out any) error {
	body := strings.TrimSpace(c.Rpc(name, "", args))
	if body == "" {
		return fmt.Errorf("rpc %s: empty response", name)
	}
	if strings.HasPrefix(body, "{") {
		var rpcErr RPCError
		if err := json.Unmarshal([]byte(body), &rpcErr); err == nil && rpcErr.Code != "" {
			return &rpcErr
		}
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode rpc %s: %w", name, err)
	}
	return nil
}
