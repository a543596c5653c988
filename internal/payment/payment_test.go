package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePayments struct {
	resp map[string]interface{}
	err  error
	got  string
}

func (f *fakePayments) Fetch(id string, _ map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	f.got = id
	return f.resp, f.err
}

func TestRazorpayVerify(t *testing.T) {
	cases := []struct {
		name    string
		resp    map[string]interface{}
		err     error
		wantErr error
	}{
		{"captured", map[string]interface{}{"status": "captured"}, nil, nil},
		{"authorized", map[string]interface{}{"status": "authorized"}, nil, nil},
		{"failed", map[string]interface{}{"status": "failed"}, nil, ErrNotConfirmed},
		{"missing status", map[string]interface{}{}, nil, ErrNotConfirmed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakePayments{resp: tc.resp, err: tc.err}
			v := &Razorpay{payments: f}
			err := v.Verify(context.Background(), Receipt{Method: "card", ReceiptID: "pay_1"})
			if tc.wantErr == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.wantErr)
			}
			assert.Equal(t, "pay_1", f.got)
		})
	}
}

func TestRazorpayVerify_GatewayError(t *testing.T) {
	boom := errors.New("gateway down")
	v := &Razorpay{payments: &fakePayments{err: boom}}
	err := v.Verify(context.Background(), Receipt{ReceiptID: "pay_2"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotConfirmed)
}

func TestPassThrough(t *testing.T) {
	require.NoError(t, PassThrough{}.Verify(context.Background(), Receipt{ReceiptID: "r"}))
	require.ErrorIs(t, PassThrough{}.Verify(context.Background(), Receipt{}), ErrNotConfirmed)
}
