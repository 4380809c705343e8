package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo))
	logger.Debug("hidden")
	logger.Warn("operation rejected", slog.String("contract", "bridge"))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["severity"] != "WARN" || line["message"] != "operation rejected" || line["contract"] != "bridge" {
		t.Fatalf("unexpected line %v", line)
	}
	if _, ok := line["timestamp"]; !ok {
		t.Fatalf("missing timestamp in %v", line)
	}
}

func TestMaskField(t *testing.T) {
	if got := MaskField("token", "secret"); got.Value.String() != RedactedValue {
		t.Fatalf("token must be redacted, got %v", got)
	}
	if got := MaskField("method", "bridge_getSigner"); got.Value.String() != "bridge_getSigner" {
		t.Fatalf("allowlisted key must pass through, got %v", got)
	}
	if got := MaskField("token", " "); got.Value.String() != " " {
		t.Fatalf("empty value must pass through, got %v", got)
	}
}

func TestHandlerRedactsSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, slog.LevelInfo))
	logger.Info("keystore opened",
		slog.String("passphrase", "hunter2"),
		slog.Group("rpc", slog.String("token", "s3cret")),
		slog.String("contract", "bridge.near"))

	out := buf.String()
	if bytes.Contains(buf.Bytes(), []byte("hunter2")) || bytes.Contains(buf.Bytes(), []byte("s3cret")) {
		t.Fatalf("secret leaked: %s", out)
	}
	var line struct {
		Passphrase string            `json:"passphrase"`
		RPC        map[string]string `json:"rpc"`
		Contract   string            `json:"contract"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if line.Passphrase != RedactedValue || line.RPC["token"] != RedactedValue || line.Contract != "bridge.near" {
		t.Fatalf("unexpected line %s", out)
	}
	if !IsSensitive(" Token ") || IsSensitive("contract") {
		t.Fatalf("unexpected sensitivity classification")
	}
}
