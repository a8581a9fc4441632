package fastcgi

import "testing"

func TestEncodeDecodeParamsRoundTrip(t *testing.T) {
	params := map[string]string{
		"REQUEST_METHOD": "GET",
		"SCRIPT_FILENAME": "/var/www/index.py",
		"QUERY_STRING":    "",
	}
	encoded := EncodeParams(params)

	decoded, err := DecodeParams(encoded)
	if err != nil {
		t.Fatalf("DecodeParams: %v", err)
	}
	if len(decoded) != len(params) {
		t.Fatalf("decoded %d params, want %d", len(decoded), len(params))
	}
	for k, v := range params {
		if decoded[k] != v {
			t.Errorf("decoded[%q] = %q, want %q", k, decoded[k], v)
		}
	}
}

func TestEncodeParamLongNameAndValue(t *testing.T) {
	longName := make([]byte, 200)
	for i := range longName {
		longName[i] = 'a'
	}
	longValue := make([]byte, 300)
	for i := range longValue {
		longValue[i] = 'b'
	}
	encoded := EncodeParam(string(longName), string(longValue))

	decoded, err := DecodeParams(encoded)
	if err != nil {
		t.Fatalf("DecodeParams: %v", err)
	}
	if decoded[string(longName)] != string(longValue) {
		t.Errorf("round trip mismatch for long name/value pair")
	}
}

func TestDecodeParamsRejectsTruncatedInput(t *testing.T) {
	if _, err := DecodeParams([]byte{200}); err == nil {
		t.Fatal("expected error for truncated length-prefixed input")
	}
}
