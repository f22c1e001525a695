package http

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONResponse_Success(t *testing.T) {
	resp := newJSONResponse(&RawResponse{
		StatusCode: 200,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
		Body:       []byte(`{"user":{"id":7,"name":"alice"}}`),
	})

	assert.True(t, resp.Success())
	assert.NoError(t, resp.Err())
	assert.True(t, resp.IsJSON())
	assert.Equal(t, int64(7), resp.Get("user.id").Int())
	assert.Equal(t, "alice", resp.Get("user.name").String())

	var decoded struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	require.NoError(t, resp.Decode(&decoded))
	assert.Equal(t, "alice", decoded.User.Name)
}

func TestJSONResponse_NonJSONBody(t *testing.T) {
	resp := newJSONResponse(&RawResponse{StatusCode: 200, Body: []byte("plain text")})

	assert.True(t, resp.Success())
	assert.Nil(t, resp.Payload())
	assert.Equal(t, "plain text", resp.BodyString())
}

func TestJSONResponse_StatusError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "message field", body: `{"message":"bad input"}`, message: "bad input"},
		{name: "error field", body: `{"error":"denied"}`, message: "denied"},
		{name: "nested error", body: `{"error":{"message":"nested"}}`, message: "nested"},
		{name: "no message", body: `{}`, message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := newJSONResponse(&RawResponse{StatusCode: 422, Status: "422 Unprocessable Entity", Body: []byte(tt.body)})

			assert.False(t, resp.Success())
			var statusErr *StatusError
			require.True(t, errors.As(resp.Err(), &statusErr))
			assert.Equal(t, 422, statusErr.StatusCode)
			assert.Equal(t, tt.message, statusErr.Message)
		})
	}
}

func TestJSONResponse_TransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	resp := newJSONResponse(&RawResponse{Err: transportErr})

	assert.False(t, resp.Success())
	assert.ErrorIs(t, resp.Err(), transportErr)
}

func TestRawResponse_StatusHelpers(t *testing.T) {
	tests := []struct {
		statusCode  int
		success     bool
		clientError bool
		serverError bool
	}{
		{200, true, false, false},
		{204, true, false, false},
		{302, false, false, false},
		{404, false, true, false},
		{503, false, false, true},
	}

	for _, tt := range tests {
		raw := &RawResponse{StatusCode: tt.statusCode}
		assert.Equal(t, tt.success, raw.IsSuccess(), "StatusCode: %d", tt.statusCode)
		assert.Equal(t, tt.clientError, raw.IsClientError(), "StatusCode: %d", tt.statusCode)
		assert.Equal(t, tt.serverError, raw.IsServerError(), "StatusCode: %d", tt.statusCode)
	}
}

func TestRawResponse_HeaderCaseInsensitive(t *testing.T) {
	raw := &RawResponse{Headers: map[string]string{"X-Request-Id": "abc"}}
	assert.Equal(t, "abc", raw.Header("x-request-id"))
	assert.Equal(t, "", raw.Header("missing"))
}

const userSchema = `{
	"type": "object",
	"required": ["id", "name"],
	"properties": {
		"id": {"type": "integer"},
		"name": {"type": "string"}
	}
}`

func TestSchemaResponseFactory(t *testing.T) {
	factory, err := SchemaResponseFactory([]byte(userSchema))
	require.NoError(t, err)

	valid := factory(&RawResponse{StatusCode: 200, Body: []byte(`{"id":1,"name":"alice"}`)})
	assert.True(t, valid.Success())

	invalid := factory(&RawResponse{StatusCode: 200, Body: []byte(`{"id":"one"}`)})
	assert.False(t, invalid.Success())
	assert.ErrorIs(t, invalid.Err(), ErrSchemaMismatch)

	notFound := factory(&RawResponse{StatusCode: 404, Body: []byte(`{}`)})
	var statusErr *StatusError
	assert.True(t, errors.As(notFound.Err(), &statusErr))
}

func TestSchemaResponseFactory_InvalidSchema(t *testing.T) {
	_, err := SchemaResponseFactory([]byte(`{"type": 12}`))
	assert.Error(t, err)
}

func TestSchemaResponseFactoryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(userSchema), 0644))

	factory, err := SchemaResponseFactoryFromFile(path)
	require.NoError(t, err)
	assert.True(t, factory(&RawResponse{StatusCode: 200, Body: []byte(`{"id":2,"name":"bob"}`)}).Success())

	_, err = SchemaResponseFactoryFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
