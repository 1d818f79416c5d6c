package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSelectors(t *testing.T) {
	sels := DefaultSelectors()
	require.NoError(t, sels.Validate())

	assert.Equal(t, "#prompt-textarea", sels[ControlInput])
	assert.Equal(t, "button[data-testid='send-button']", sels[ControlSubmit])
	assert.Equal(t, ".result-streaming", sels[ControlStreaming])
	assert.Equal(t, "div[data-message-author-role='assistant']", sels[ControlAssistantMessage])
}

func TestSelectors_Merge(t *testing.T) {
	base := DefaultSelectors()
	merged := base.Merge(Selectors{
		ControlSubmit: "button.send",
		ControlInput:  "   ",
	})

	assert.Equal(t, "button.send", merged[ControlSubmit])
	assert.Equal(t, "#prompt-textarea", merged[ControlInput], "blank override keeps default")
	assert.Equal(t, "button[data-testid='send-button']", base[ControlSubmit], "base is not mutated")
}

func TestSelectors_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sels    Selectors
		wantErr string
	}{
		{
			name:    "missing control",
			sels:    Selectors{ControlInput: "#a", ControlSubmit: "#b", ControlStreaming: "#c"},
			wantErr: `no selector configured for control "assistant_message"`,
		},
		{
			name:    "unknown control",
			sels:    DefaultSelectors().Merge(Selectors{"zeta": "#z", "alpha": "#a"}),
			wantErr: "unknown controls: alpha, zeta",
		},
		{
			name:    "empty selector",
			sels:    Selectors{ControlInput: "", ControlSubmit: "#b", ControlStreaming: "#c", ControlAssistantMessage: "#d"},
			wantErr: `no selector configured for control "input"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sels.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err       error
		transient bool
	}{
		{errors.New("Execution context was destroyed, most likely because of a navigation"), true},
		{errors.New("Protocol error: Cannot find context with specified id"), true},
		{errors.New("frame was detached"), true},
		{errors.New("'NoneType' object has no such property"), true},
		{errors.New("Target page, context or browser has been closed"), false},
		{errors.New("timeout 30000ms exceeded"), false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			err := classify(tt.err)
			assert.Equal(t, tt.transient, IsTransient(err))
			assert.Contains(t, err.Error(), tt.err.Error())
		})
	}

	assert.NoError(t, classify(nil))
}

func TestStartupError(t *testing.T) {
	cause := errors.New("permission denied")
	err := error(&StartupError{Stage: "profile", Err: cause})

	assert.ErrorIs(t, err, ErrSessionStartup)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "session startup failed at profile: permission denied", err.Error())
}
