package mcp

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/mull/internal/errors"
)

// decode converts tool arguments into a typed request. Failures come back
// as INVALID_REQUEST naming the tool and, for type mismatches, the field.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, errors.NewInvalidRequest(fmt.Sprintf("%s: arguments are not JSON", toolName(req)))
	}
	if err := json.Unmarshal(b, &result); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			return result, errors.NewInvalidRequest(fmt.Sprintf("%s: %s must be %s, got %s",
				toolName(req), typeErr.Field, typeErr.Type, typeErr.Value))
		}
		return result, errors.NewInvalidRequest(fmt.Sprintf("%s: invalid arguments", toolName(req)))
	}
	return result, nil
}

func toolName(req mcp.CallToolRequest) string {
	if req.Params.Name == "" {
		return "tool"
	}
	return req.Params.Name
}
