package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInitTracer(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer("extrude-curve-test", &buf)
	if err != nil {
		t.Fatal(err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "slice-model")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"slice-model", "extrude-curve-test"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%v", want, out)
		}
	}
}
