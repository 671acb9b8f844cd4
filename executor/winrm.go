package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"
)

// WinRmExecutor runs commands on a remote Windows host by POSTing a SOAP
// envelope wrapping an encoded PowerShell one-liner to the WinRM
// endpoint. No third-party WinRM client exists anywhere in the
// retrieved example pack, so this is built directly on net/http; see
// DESIGN.md for the stdlib justification.
type WinRmExecutor struct {
	endpoint string
	user     string
	password string
	client   *http.Client
}

// ConnectWinRM builds a WinRmExecutor for host:port. No handshake is
// performed up front. WinRM has no persistent session, so "connect" is
// really just endpoint construction; the first Execute call is the
// first network round trip.
func ConnectWinRM(host string, port int, https bool, user, password string) (*WinRmExecutor, error) {
	scheme := "http"
	if https {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s:%d/wsman", scheme, host, port)
	return &WinRmExecutor{
		endpoint: endpoint,
		user:     user,
		password: password,
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// encodedCommand turns a PowerShell command into the UTF-16LE/base64
// form powershell.exe -EncodedCommand expects.
func encodedCommand(command string) string {
	units := utf16.Encode([]rune(command))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		buf[2*i] = byte(u)
		buf[2*i+1] = byte(u >> 8)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

const winrmEnvelopeTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<s:Envelope xmlns:s="http://www.w3.org/2003/05/soap-envelope"
            xmlns:wsa="http://schemas.xmlsoap.org/ws/2004/08/addressing"
            xmlns:rsp="http://schemas.microsoft.com/wbem/wsman/1/windows/shell">
  <s:Header>
    <wsa:Action>http://schemas.microsoft.com/wbem/wsman/1/windows/shell/Command</wsa:Action>
    <wsa:To>%[1]s</wsa:To>
  </s:Header>
  <s:Body>
    <rsp:CommandLine>
      <rsp:Command>powershell.exe -NoProfile -NonInteractive -EncodedCommand %[2]s</rsp:Command>
    </rsp:CommandLine>
  </s:Body>
</s:Envelope>`

// shellOutput is a minimal decoder for the subset of a WinRM Receive
// response this tool needs: base64-encoded stdout/stderr streams and
// an exit code, once the remote shell session completes.
type shellOutput struct {
	Stdout   string
	Stderr   string
	ExitCode *int32
}

func (e *WinRmExecutor) Execute(ctx context.Context, command string) (Result, error) {
	envelope := fmt.Sprintf(winrmEnvelopeTemplate, e.endpoint, encodedCommand(command))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, strings.NewReader(envelope))
	if err != nil {
		return Result{}, fmt.Errorf("winrm: build request: %w", err)
	}
	req.SetBasicAuth(e.user, e.password)
	req.Header.Set("Content-Type", `application/soap+xml;charset=UTF-8`)

	resp, err := e.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("winrm: request to %s: %w", e.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("winrm: reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("winrm: %s returned HTTP %d: %s", e.endpoint, resp.StatusCode, string(body))
	}

	out, err := decodeShellOutput(body)
	if err != nil {
		return Result{}, fmt.Errorf("winrm: decoding response: %w", err)
	}

	return Result{ExitCode: out.ExitCode, Stdout: out.Stdout, Stderr: out.Stderr}, nil
}

// winrmStreamEnvelope is the small slice of the WinRM response schema
// this tool cares about: one or more base64 Stream elements tagged
// stdout/stderr, and (on the final packet) the process exit code.
type winrmStreamEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		ReceiveResponse struct {
			Streams []struct {
				Name  string `xml:"Name,attr"`
				Value string `xml:",chardata"`
			} `xml:"Stream"`
			CommandState struct {
				ExitCode *int32 `xml:"ExitCode"`
			} `xml:"CommandState"`
		} `xml:"ReceiveResponse"`
	} `xml:"Body"`
}

func decodeShellOutput(body []byte) (shellOutput, error) {
	var env winrmStreamEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return shellOutput{}, err
	}

	var stdout, stderr bytes.Buffer
	for _, s := range env.Body.ReceiveResponse.Streams {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s.Value))
		if err != nil {
			continue
		}
		switch s.Name {
		case "stdout":
			stdout.Write(decoded)
		case "stderr":
			stderr.Write(decoded)
		}
	}

	return shellOutput{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: env.Body.ReceiveResponse.CommandState.ExitCode,
	}, nil
}

func (e *WinRmExecutor) Close() error { return nil }
