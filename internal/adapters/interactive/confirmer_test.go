package interactive

import (
	"errors"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
)

func TestConfirmerAdapter(t *testing.T) {
	tests := []struct {
		name           string
		nonInteractive bool
		answer         error
		want           bool
		wantErr        bool
		wantPrompted   bool
	}{
		{name: "non-interactive skips prompt", nonInteractive: true, want: true},
		{name: "accepted", want: true, wantPrompted: true},
		{name: "declined", answer: promptui.ErrAbort, want: false, wantPrompted: true},
		{name: "interrupted", answer: promptui.ErrInterrupt, want: false, wantPrompted: true},
		{name: "terminal failure", answer: errors.New("no tty"), wantErr: true, wantPrompted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompted := false
			c := NewConfirmerWithPrompter(&config.RuntimeConfig{NonInteractive: tt.nonInteractive}, func(label string) (string, error) {
				prompted = true
				assert.Equal(t, "Broadcast 3 instructions", label)
				return "y", tt.answer
			})

			ok, err := c.Confirm("Broadcast 3 instructions")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.wantPrompted, prompted)
		})
	}
}
