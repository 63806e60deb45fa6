package controller

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		labels map[string]string
		bad    bool
	}{
		{name: "empty", in: "", labels: map[string]string{}},
		{name: "pairs", in: "role=net, site = lab ,", labels: map[string]string{"role": "net", "site": "lab"}},
		{name: "empty value", in: "role=", labels: map[string]string{"role": ""}},
		{name: "missing key", in: "=net", bad: true},
		{name: "missing value", in: "role", bad: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			labels, err := ParseLabels(test.in)
			if test.bad {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.labels, labels)
		})
	}
}

func TestLabelsFlag(t *testing.T) {
	var f labelsFlag
	require.NoError(t, (&f).Set("b=2"))
	require.NoError(t, (&f).Set("a=1"))
	require.Error(t, (&f).Set("c"))
	require.Equal(t, "a=1,b=2", (&f).String())
}

func TestNewConfigCopiesLabels(t *testing.T) {
	conf := NewConfig().SetLabel("role", "net")
	require.Equal(t, "net", conf.Info.Meta.Labels["role"])
	_, leaked := Default().Info.Meta.Labels["role"]
	require.False(t, leaked)
}

func TestNewEnv(t *testing.T) {
	conf := NewConfig()
	conf.Info.Ref.ID = "d1"
	conf.MQTTBrokerURL = ""
	e, err := conf.NewEnv()
	require.NoError(t, err)
	require.Empty(t, e.Registrars)

	conf.Info.Ref.ID = "a/b"
	_, err = conf.NewEnv()
	require.Error(t, err)

	conf.Info.Ref.ID = "d1"
	conf.MQTTBrokerURL = "http://broker/x"
	_, err = conf.NewEnv()
	require.Error(t, err)
}
