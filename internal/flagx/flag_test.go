package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.yaml", "-a", "http://localhost:3000"},
			allowed: []string{"-c"},
			want:    []string{"-c", "conf.yaml"},
		},
		{
			name:    "equals form",
			args:    []string{"-a=http://h:1", "-d", "x.db"},
			allowed: []string{"-a"},
			want:    []string{"-a=http://h:1"},
		},
		{
			name:    "order preserved across forms",
			args:    []string{"-config=first.yaml", "-c", "second.yaml", "-x", "1"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=first.yaml", "-c", "second.yaml"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-i"},
			allowed: []string{"-i"},
			want:    []string{"-i"},
		},
		{
			name:    "next flag is not consumed as value",
			args:    []string{"-c", "-l", "debug"},
			allowed: []string{"-c", "-l"},
			want:    []string{"-c", "-l", "debug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short", args: []string{"-a", "x", "-c", "dev.yaml"}, want: "dev.yaml"},
		{name: "long equals", args: []string{"-config=prod.yaml"}, want: "prod.yaml"},
		{name: "absent", args: []string{"-a", "x"}, want: ""},
		{name: "empty args", args: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigFileFlag(tt.args))
		})
	}
}
