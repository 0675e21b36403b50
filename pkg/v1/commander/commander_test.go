package commander_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-faker/faker/v4"
	"github.com/milotrack/milo-price-tracker/pkg/v1/commander"
	"github.com/milotrack/milo-price-tracker/pkg/v1/commander/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUnitSendRefreshCommand(t *testing.T) {
	query := faker.Word()
	body := []byte(fmt.Sprintf(`{"query":"%s"}`, query))

	tests := map[string]struct {
		senderError error
		wantErr     error
	}{
		"ok": {},
		"sender error": {
			senderError: assert.AnError,
			wantErr:     assert.AnError,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sender := mocks.NewSender(t)
			sender.On("Send", mock.Anything, body).Return(tt.senderError)

			cmndr := commander.NewRefreshCommander(sender)
			err := cmndr.SendRefreshCommand(context.TODO(), query)

			require.ErrorIs(t, err, tt.wantErr, "should return correct error")
		})
	}
}
