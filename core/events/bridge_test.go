package events

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLineEnvelope(t *testing.T) {
	salt := "s1"
	evt := FTDeposited{
		Token:      "usdc.near",
		Sender:     "feer.near",
		Receiver:   "0xabc",
		ChainTo:    "Ethereum",
		Amount:     "100",
		BundleSalt: &salt,
	}
	line, err := LogLine(evt)
	if err != nil {
		t.Fatalf("log line: %v", err)
	}
	if !strings.HasPrefix(line, "EVENT_JSON:") {
		t.Fatalf("missing prefix: %s", line)
	}
	var decoded struct {
		Standard string           `json:"standard"`
		Version  string           `json:"version"`
		Event    string           `json:"event"`
		Data     []map[string]any `json:"data"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "EVENT_JSON:")), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Standard != StandardFT || decoded.Version != EventVersion || decoded.Event != TypeFTDeposited {
		t.Fatalf("unexpected envelope %+v", decoded)
	}
	if len(decoded.Data) != 1 {
		t.Fatalf("expected one data entry")
	}
	data := decoded.Data[0]
	if data["amount"] != "100" || data["bundle_salt"] != "s1" {
		t.Fatalf("unexpected data %v", data)
	}
	if _, ok := data["bundle_data"]; ok {
		t.Fatalf("absent bundle data must be omitted")
	}
}

func TestRecorderAndFanout(t *testing.T) {
	rec := &Recorder{}
	Fanout{NoopEmitter{}, rec, nil}.Emit(NativeDeposited{Amount: "1"})
	got := rec.Events()
	if len(got) != 1 || got[0].EventType() != TypeNativeDeposited {
		t.Fatalf("unexpected events %v", got)
	}
	rec.Reset()
	if len(rec.Events()) != 0 {
		t.Fatalf("reset did not clear events")
	}
}

func TestEventAttributes(t *testing.T) {
	data := "bundle"
	attrs := NFTDeposited{Token: "nft.near", TokenID: "7", IsWrapped: true, BundleData: &data}.Event().Attributes
	if attrs["tokenId"] != "7" || attrs["isWrapped"] != "true" || attrs["bundleData"] != "bundle" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	if _, ok := attrs["bundleSalt"]; ok {
		t.Fatalf("absent salt must not be set")
	}
}

func TestLogEmitterWritesEnvelopeAndAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	LogEmitter{Logger: logger}.Emit(FTDeposited{Token: "usdc.near", Sender: "feer.near", Amount: "5"})

	var line struct {
		Event      string            `json:"event"`
		Log        string            `json:"log"`
		Attributes map[string]string `json:"attributes"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line.Event != TypeFTDeposited || !strings.HasPrefix(line.Log, "EVENT_JSON:") {
		t.Fatalf("unexpected line %s", buf.String())
	}
	if line.Attributes["token"] != "usdc.near" || line.Attributes["amount"] != "5" {
		t.Fatalf("unexpected attributes %v", line.Attributes)
	}
}
