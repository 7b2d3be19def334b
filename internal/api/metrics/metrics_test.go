package metrics

import (
	"net/http"
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func TestResultOf(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:                  ResultSuccess,
		http.StatusCreated:             ResultSuccess,
		http.StatusBadRequest:          ResultRejected,
		http.StatusUnauthorized:        ResultRejected,
		http.StatusNotFound:            ResultRejected,
		http.StatusInternalServerError: ResultError,
	}
	for status, want := range tests {
		if got := ResultOf(status); got != want {
			t.Errorf("ResultOf(%d) = %q, want %q", status, got, want)
		}
	}
}

func counterValue(t *testing.T, action, result string) float64 {
	t.Helper()
	var m dto.Metric
	if err := AuthAttemptsTotal.WithLabelValues(action, result).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestAuthAttemptsTotal_Increments(t *testing.T) {
	before := counterValue(t, "login", ResultRejected)
	AuthAttemptsTotal.WithLabelValues("login", ResultRejected).Inc()
	if got := counterValue(t, "login", ResultRejected); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}
