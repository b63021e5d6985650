package queue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestGetRetryCount(t *testing.T) {
	cases := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{name: "nil headers", headers: nil, want: 0},
		{name: "missing", headers: amqp.Table{"other": "x"}, want: 0},
		{name: "int32", headers: amqp.Table{"x-retry-count": int32(2)}, want: 2},
		{name: "int64", headers: amqp.Table{"x-retry-count": int64(3)}, want: 3},
		{name: "wrong type", headers: amqp.Table{"x-retry-count": "4"}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := getRetryCount(tc.headers); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
