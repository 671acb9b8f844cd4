package executor

import (
	"encoding/base64"
	"fmt"
	"testing"
	"unicode/utf16"
)

func TestEncodedCommandIsUTF16LEBase64(t *testing.T) {
	got := encodedCommand("hostname")

	raw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		t.Fatalf("decoding encodedCommand output: %v", err)
	}
	if len(raw)%2 != 0 {
		t.Fatalf("decoded length %d is not a multiple of 2", len(raw))
	}

	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	if string(utf16.Decode(units)) != "hostname" {
		t.Errorf("decoded command = %q, want hostname", string(utf16.Decode(units)))
	}
}

func TestWinrmEnvelopeTemplateEmbedsEndpointAndCommand(t *testing.T) {
	envelope := fmt.Sprintf(winrmEnvelopeTemplate, "http://host:5985/wsman", "ZQBjAGgAbwA=")
	if !contains(envelope, "http://host:5985/wsman") {
		t.Error("expected endpoint in envelope header")
	}
	if !contains(envelope, "ZQBjAGgAbwA=") {
		t.Error("expected encoded command in envelope body")
	}
}

func TestDecodeShellOutputCombinesStreamsAndExitCode(t *testing.T) {
	stdout := base64.StdEncoding.EncodeToString([]byte("hello\n"))
	stderr := base64.StdEncoding.EncodeToString([]byte("warn\n"))
	body := []byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
  <s:Body>
    <rsp:ReceiveResponse xmlns:rsp="http://schemas.microsoft.com/wbem/wsman/1/windows/shell">
      <rsp:Stream Name="stdout">` + stdout + `</rsp:Stream>
      <rsp:Stream Name="stderr">` + stderr + `</rsp:Stream>
      <rsp:CommandState><rsp:ExitCode>0</rsp:ExitCode></rsp:CommandState>
    </rsp:ReceiveResponse>
  </s:Body>
</s:Envelope>`)

	out, err := decodeShellOutput(body)
	if err != nil {
		t.Fatalf("decodeShellOutput: %v", err)
	}
	if out.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want hello", out.Stdout)
	}
	if out.Stderr != "warn\n" {
		t.Errorf("Stderr = %q, want warn", out.Stderr)
	}
	if out.ExitCode == nil || *out.ExitCode != 0 {
		t.Errorf("ExitCode = %v, want 0", out.ExitCode)
	}
}

func TestDecodeShellOutputIgnoresUndecodableStream(t *testing.T) {
	body := []byte(`<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope">
  <s:Body>
    <rsp:ReceiveResponse xmlns:rsp="http://schemas.microsoft.com/wbem/wsman/1/windows/shell">
      <rsp:Stream Name="stdout">not-valid-base64!!!</rsp:Stream>
    </rsp:ReceiveResponse>
  </s:Body>
</s:Envelope>`)

	out, err := decodeShellOutput(body)
	if err != nil {
		t.Fatalf("decodeShellOutput: %v", err)
	}
	if out.Stdout != "" {
		t.Errorf("Stdout = %q, want empty for undecodable stream", out.Stdout)
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
