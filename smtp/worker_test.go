// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/chain"
)

func newTestWorker(handlers Handlers) *Worker {
	return NewWorker(rain.NewConfig(), handlers)
}

func readAll(r io.Reader) (string, error) {
	var buf bytes.Buffer
	_, err := io.Copy(&buf, r)
	return buf.String(), err
}

func TestWorkerDispatchHELOReplies250(t *testing.T) {
	w := newTestWorker(Handlers{})
	pre := w.dispatch(&Session{}, &Request{Command: CommandHELO}, nil, nil)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusRequestCompleted, pre.Response.StatusCode)
}

func TestWorkerDispatchMailSetsSessionState(t *testing.T) {
	w := newTestWorker(Handlers{})
	sess := &Session{}
	pre := w.dispatch(sess, &Request{Command: CommandMAIL, Parameter: "FROM:<alice@example.com>"}, nil, nil)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusRequestCompleted, pre.Response.StatusCode)
	require.NotNil(t, sess.MailFrom)
	assert.Equal(t, "alice@example.com", sess.MailFrom.String())
}

func TestWorkerDispatchMailMalformed(t *testing.T) {
	w := newTestWorker(Handlers{})
	sess := &Session{}
	pre := w.dispatch(sess, &Request{Command: CommandMAIL, Parameter: "FROM:alice@example.com"}, nil, nil)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusSyntaxErrorParameter, pre.Response.StatusCode)
	assert.Nil(t, sess.MailFrom)
}

func TestWorkerDispatchRcptAccumulates(t *testing.T) {
	w := newTestWorker(Handlers{})
	sess := &Session{}
	w.dispatch(sess, &Request{Command: CommandRCPT, Parameter: "TO:<bob@example.com>"}, nil, nil)
	pre := w.dispatch(sess, &Request{Command: CommandRCPT, Parameter: "TO:<carol@example.com>"}, nil, nil)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusRequestCompleted, pre.Response.StatusCode)
	assert.Len(t, sess.RcptTo, 2)
}

func TestWorkerDispatchDataWithoutMailFromRejects(t *testing.T) {
	w := newTestWorker(Handlers{})
	sess := &Session{}
	var out bytes.Buffer
	br := bufio.NewReader(strings.NewReader("body\r\n.\r\n"))
	pre := w.dispatch(sess, &Request{Command: CommandDATA}, br, &out)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusBadSequenceCommand, pre.Response.StatusCode)
	assert.Empty(t, out.String())
}

func TestWorkerDispatchDataDelegatesToHandler(t *testing.T) {
	var gotBody string
	w := newTestWorker(Handlers{
		OnDataStream: func(sess *Session, body *DataReader) (PreResponse, error) {
			data, err := readAll(body)
			require.NoError(t, err)
			gotBody = data
			return ok(StatusRequestCompleted), nil
		},
	})
	sess := &Session{MailFrom: &Mailbox{Name: "alice"}}
	sess.AddRcpt(Mailbox{Name: "bob"})
	var out bytes.Buffer
	br := bufio.NewReader(strings.NewReader("hello\r\n.\r\n"))
	pre := w.dispatch(sess, &Request{Command: CommandDATA}, br, &out)

	assert.Equal(t, "354 Start mail input; end with <CRLF>.<CRLF>\r\n", out.String())
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusRequestCompleted, pre.Response.StatusCode)
	assert.Equal(t, "hello", gotBody)
}

func TestWorkerDispatchRsetClearsSession(t *testing.T) {
	w := newTestWorker(Handlers{})
	sess := &Session{MailFrom: &Mailbox{Name: "alice"}}
	sess.AddRcpt(Mailbox{Name: "bob"})
	pre := w.dispatch(sess, &Request{Command: CommandRSET}, nil, nil)
	require.NotNil(t, pre.Response)
	assert.Nil(t, sess.MailFrom)
	assert.Empty(t, sess.RcptTo)
}

func TestWorkerDispatchQuitRequestsClose(t *testing.T) {
	w := newTestWorker(Handlers{})
	pre := w.dispatch(&Session{}, &Request{Command: CommandQUIT}, nil, nil)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusServiceClosing, pre.Response.StatusCode)
	assert.True(t, pre.CloseAfter)
}

func TestWorkerDispatchUnimplementedVerb(t *testing.T) {
	w := newTestWorker(Handlers{})
	pre := w.dispatch(&Session{}, &Request{Command: CommandSEND}, nil, nil)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusCommandNotImplemented, pre.Response.StatusCode)
}

func TestWorkerDispatchAuthLoginSucceeds(t *testing.T) {
	w := newTestWorker(Handlers{
		OnAuthLogin: func(sess *Session, username, password string) (PreResponse, error) {
			if username == "alice" && password == "secret" {
				return ok(StatusAuthenticationSucceeded), nil
			}
			return ok(StatusAuthenticationInvalid), nil
		},
	})
	usernameB64 := base64.StdEncoding.EncodeToString([]byte("alice"))
	passwordB64 := base64.StdEncoding.EncodeToString([]byte("secret"))
	br := bufio.NewReader(strings.NewReader(usernameB64 + "\r\n" + passwordB64 + "\r\n"))
	var out bytes.Buffer
	pre := w.dispatch(&Session{}, &Request{Command: CommandAUTH, Parameter: "LOGIN"}, br, &out)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusAuthenticationSucceeded, pre.Response.StatusCode)
	assert.Contains(t, out.String(), "334 ")
}

func TestWorkerDispatchAuthUnknownMethod(t *testing.T) {
	w := newTestWorker(Handlers{})
	var out bytes.Buffer
	pre := w.dispatch(&Session{}, &Request{Command: CommandAUTH, Parameter: "NOPE"}, nil, &out)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusCommandParameterNotImplemented, pre.Response.StatusCode)
}

func TestWorkerDispatchOverrideTakesPrecedence(t *testing.T) {
	w := newTestWorker(Handlers{
		Overrides: map[Command]Handler{
			CommandHELO: chain.FuncAdapter[*Request, PreResponse](func(*Request) (PreResponse, error) {
				return PreResponse{Response: &Response{StatusCode: StatusServiceNotAvailable}}, nil
			}),
		},
	})
	pre := w.dispatch(&Session{}, &Request{Command: CommandHELO}, nil, nil)
	require.NotNil(t, pre.Response)
	assert.Equal(t, StatusServiceNotAvailable, pre.Response.StatusCode)
}
