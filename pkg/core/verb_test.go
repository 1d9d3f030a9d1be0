package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeydtaylor/steeze-mvc/pkg/core"
)

func TestDetectVerb(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want core.DetectedVerb
	}{
		{"get /users", core.DetectedVerb{Verb: "get", Original: "/users"}},
		{"POST /users/:id", core.DetectedVerb{Verb: "post", Original: "/users/:id"}},
		{"  Delete   /x ", core.DetectedVerb{Verb: "delete", Original: "/x"}},
		{"get find", core.DetectedVerb{Verb: "get", Original: "find"}},
		{"trace *", core.DetectedVerb{Verb: "trace", Original: "*"}},
		{"/users", core.DetectedVerb{Original: "/users"}},
		{"index", core.DetectedVerb{Original: "index"}},
		{"getter /x", core.DetectedVerb{Original: "getter /x"}},
		{"fetch /x", core.DetectedVerb{Original: "fetch /x"}},
		{"get", core.DetectedVerb{Original: "get"}},
		{"", core.DetectedVerb{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, core.DetectVerb(tt.in), tt.in)
	}
}
