// SPDX-License-Identifier: GPL-3.0-or-later

package smtp

import (
	"bufio"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/rainsocket/rain"
	"github.com/rainsocket/rain/chain"
	"github.com/rainsocket/rain/resolve"
	"github.com/rainsocket/rain/sock"
	"github.com/rainsocket/rain/stream"
	"github.com/rainsocket/rain/timeout"
)

// PreResponse is a handler's verdict for one [*Request]: either "no
// response, abort" ([PreResponse.Abort] true) or a [*Response] to
// send, optionally closing the connection afterward. It mirrors the
// http package's type of the same name and purpose.
type PreResponse struct {
	Abort      bool
	Response   *Response
	CloseAfter bool
}

// Handler is a per-verb match function, composed via the chain package
// the way [github.com/rainsocket/rain/http.Handler] is.
type Handler = chain.Func[*Request, PreResponse]

// MailboxHandler is the embedder hook invoked after RCPT TO's
// parameter has been parsed into a [Mailbox].
type MailboxHandler func(sess *Session, mailbox Mailbox) (PreResponse, error)

// DataHandler consumes the DATA body stream and returns the final
// status.
type DataHandler func(sess *Session, body *DataReader) (PreResponse, error)

// AuthLoginHandler authenticates a decoded AUTH LOGIN username/password
// pair.
type AuthLoginHandler func(sess *Session, username, password string) (PreResponse, error)

// Handlers bundles every embedder-overridable hook. Overrides maps a
// [Command] to a generic [Handler] for verbs whose default behavior
// depends only on the [*Request] (HELO/EHLO/MAIL/RCPT/RSET/NOOP/
// QUIT/VRFY/AUTH and the not-implemented verbs); OnRcptMailbox,
// OnDataStream, and OnAuthLogin cover the three verbs whose default
// needs more than the Request alone. A nil field uses the package
// default for that verb.
type Handlers struct {
	Overrides     map[Command]Handler
	OnRcptMailbox MailboxHandler
	OnDataStream  DataHandler
	OnAuthLogin   AuthLoginHandler
}

// defaultConstResponses holds the fixed PreResponse for verbs whose
// default reply never depends on the request, built as [chain.Func]s
// via [chain.ConstFunc] so the dispatch table is uniformly composed
// through the chain package.
var defaultConstResponses = map[Command]chain.Func[chain.Unit, PreResponse]{
	CommandSEND: chain.ConstFunc(ok(StatusCommandNotImplemented)),
	CommandSOML: chain.ConstFunc(ok(StatusCommandNotImplemented)),
	CommandSAML: chain.ConstFunc(ok(StatusCommandNotImplemented)),
	CommandEXPN: chain.ConstFunc(ok(StatusCommandNotImplemented)),
	CommandTURN: chain.ConstFunc(ok(StatusCommandNotImplemented)),
	CommandVRFY: chain.ConstFunc(ok(StatusCannotVerify)),
	CommandHELP: chain.ConstFunc(ok(StatusHelpMessage)),
}

func ok(code StatusCode, lines ...string) PreResponse {
	return PreResponse{Response: &Response{StatusCode: code, Lines: lines}}
}

func okClose(code StatusCode, lines ...string) PreResponse {
	p := ok(code, lines...)
	p.CloseAfter = true
	return p
}

func abortPreResponse() PreResponse {
	return PreResponse{Abort: true}
}

// Worker drives one SMTP connection's state machine: send 220 on connect, then
// loop recv-request/dispatch/respond, tracking MAIL FROM/RCPT TO
// session state across commands until QUIT, a protocol error, or peer
// close.
type Worker struct {
	cfg      *rain.Config
	handlers Handlers
}

// NewWorker constructs a [*Worker]. Use as (or adapt into) a
// [github.com/rainsocket/rain/runtime.WorkerFactory].
func NewWorker(cfg *rain.Config, handlers Handlers) *Worker {
	return &Worker{cfg: cfg, handlers: handlers}
}

// OnWork implements [github.com/rainsocket/rain/runtime.Worker].
func (w *Worker) OnWork(conn *sock.Socket, peer resolve.AddressInfo) error {
	spanID := rain.NewSpanID()
	logger := w.cfg.Logger
	logger.Info("smtpWorkerStart", "spanID", spanID, "peer", resolve.GetNumericHost(peer).String())

	recvIdle := timeout.FromDuration(w.cfg.MaxRecvIdleDuration)
	sendOnce := timeout.FromDuration(w.cfg.SendOnceTimeoutDuration)
	st := stream.Observe(w.cfg, stream.New(w.cfg, conn, recvIdle, sendOnce))
	br := bufio.NewReader(st)

	if err := (&Response{StatusCode: StatusServiceReady}).SendWith(st); err != nil {
		conn.Abort()
		logger.Info("smtpWorkerDone", "spanID", spanID, "err", err.Error())
		return nil
	}

	sess := &Session{}
	for {
		req := &Request{}
		if err := req.RecvWith(br); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			res := &Response{StatusCode: statusForRecvError(err)}
			_ = res.SendWith(st)
			conn.CloseTimeout(timeout.FromDuration(w.cfg.AcceptIdleTimeout))
			break
		}

		pre := w.dispatch(sess, req, br, st)
		st.ResetRecvIdle(recvIdle)

		if pre.Abort {
			conn.Abort()
			break
		}
		if pre.Response == nil {
			pre.Response = &Response{StatusCode: StatusRequestCompleted}
		}
		if err := pre.Response.SendWith(st); err != nil {
			conn.Abort()
			break
		}
		if pre.CloseAfter {
			conn.CloseTimeout(timeout.FromDuration(w.cfg.AcceptIdleTimeout))
			break
		}
	}
	logger.Info("smtpWorkerDone", "spanID", spanID)
	return nil
}

// dispatch routes req to its verb handler. DATA and AUTH LOGIN need
// direct access to br/st (to stream the body and to issue mid-command
// challenges), so they are handled inline rather than through the
// uniform [Handler] chain.
func (w *Worker) dispatch(sess *Session, req *Request, br *bufio.Reader, st io.Writer) PreResponse {
	if override, found := w.handlers.Overrides[req.Command]; found {
		pre, err := chain.Apply(override, req).Call(chain.Unit{})
		if err != nil {
			return abortPreResponse()
		}
		return pre
	}

	switch req.Command {
	case CommandHELO, CommandEHLO:
		return ok(StatusRequestCompleted)
	case CommandMAIL:
		return w.onMail(sess, req)
	case CommandRCPT:
		return w.onRcpt(sess, req)
	case CommandDATA:
		return w.onData(sess, req, br, st)
	case CommandRSET:
		sess.Reset()
		return ok(StatusRequestCompleted, "OK")
	case CommandNOOP:
		return ok(StatusRequestCompleted, "OK")
	case CommandQUIT:
		return okClose(StatusServiceClosing)
	case CommandAUTH:
		return w.onAuth(sess, req, br, st)
	default:
		if pre, found := defaultConstResponses[req.Command]; found {
			result, _ := pre.Call(chain.Unit{})
			return result
		}
		return ok(StatusCommandNotImplemented)
	}
}

// onMail handles MAIL FROM:<addr>: parse the
// address between '<' and '>', set Session.MailFrom, reply 250.
func (w *Worker) onMail(sess *Session, req *Request) PreResponse {
	addr, err := parseAngleAddr(req.Parameter, "FROM:")
	if err != nil {
		return ok(StatusSyntaxErrorParameter)
	}
	mailbox := ParseMailbox(addr)
	sess.MailFrom = &mailbox
	return ok(StatusRequestCompleted)
}

// onRcpt handles RCPT TO:<addr>.
func (w *Worker) onRcpt(sess *Session, req *Request) PreResponse {
	addr, err := parseAngleAddr(req.Parameter, "TO:")
	if err != nil {
		return ok(StatusSyntaxErrorParameter)
	}
	mailbox := ParseMailbox(addr)
	if w.handlers.OnRcptMailbox != nil {
		pre, err := w.handlers.OnRcptMailbox(sess, mailbox)
		if err != nil {
			return abortPreResponse()
		}
		return pre
	}
	sess.AddRcpt(mailbox)
	return ok(StatusRequestCompleted)
}

// onData handles DATA: reject with 503
// unless MAIL FROM was set and at least one RCPT TO was accepted;
// otherwise send 354 and hand the subclass a [*DataReader] bounded by
// the "\r\n.\r\n" terminator.
func (w *Worker) onData(sess *Session, req *Request, br *bufio.Reader, st io.Writer) PreResponse {
	if sess.MailFrom == nil || len(sess.RcptTo) == 0 {
		return ok(StatusBadSequenceCommand)
	}
	if err := (&Response{StatusCode: StatusStartMailInput}).SendWith(st); err != nil {
		return abortPreResponse()
	}
	body := NewDataReader(br)
	if w.handlers.OnDataStream != nil {
		pre, err := w.handlers.OnDataStream(sess, body)
		if err != nil {
			return abortPreResponse()
		}
		return pre
	}
	// Default: drain and reject.
	drain(body)
	return ok(StatusTransactionFailed)
}

func drain(r *DataReader) {
	var buf [512]byte
	for {
		_, err := r.Read(buf[:])
		if err != nil {
			return
		}
	}
}

// onAuth handles AUTH: the parameter's
// first whitespace-delimited token names the [AuthMethod].
func (w *Worker) onAuth(sess *Session, req *Request, br *bufio.Reader, st io.Writer) PreResponse {
	fields := strings.Fields(req.Parameter)
	if len(fields) == 0 {
		return ok(StatusCommandParameterNotImplemented)
	}
	method, err := ParseAuthMethod(fields[0])
	if err != nil {
		return ok(StatusCommandParameterNotImplemented)
	}
	switch method {
	case AuthMethodLOGIN:
		return w.onAuthLogin(sess, br, st)
	case AuthMethodPLAIN, AuthMethodCRAMMD5:
		return ok(StatusCommandParameterNotImplemented)
	default:
		return ok(StatusCommandParameterNotImplemented)
	}
}

// onAuthLogin handles AUTH LOGIN: challenge
// for base64("Username") then base64("Password"), read the two
// responses, decode, and delegate to the subclass authentication hook.
func (w *Worker) onAuthLogin(sess *Session, br *bufio.Reader, st io.Writer) PreResponse {
	usernamePrompt := base64.StdEncoding.EncodeToString([]byte("Username"))
	passwordPrompt := base64.StdEncoding.EncodeToString([]byte("Password"))

	if err := (&Response{StatusCode: StatusServerChallenge, Lines: []string{usernamePrompt}}).SendWith(st); err != nil {
		return abortPreResponse()
	}
	usernameB64, err := readCRLFLine(br, MaxParameterSize)
	if err != nil {
		return abortPreResponse()
	}

	if err := (&Response{StatusCode: StatusServerChallenge, Lines: []string{passwordPrompt}}).SendWith(st); err != nil {
		return abortPreResponse()
	}
	passwordB64, err := readCRLFLine(br, MaxParameterSize)
	if err != nil {
		return abortPreResponse()
	}

	username, err1 := base64.StdEncoding.DecodeString(usernameB64)
	password, err2 := base64.StdEncoding.DecodeString(passwordB64)
	if err1 != nil || err2 != nil {
		return ok(StatusAuthenticationInvalid)
	}

	if w.handlers.OnAuthLogin != nil {
		pre, err := w.handlers.OnAuthLogin(sess, string(username), string(password))
		if err != nil {
			return abortPreResponse()
		}
		return pre
	}
	return ok(StatusAuthenticationInvalid)
}

// parseAngleAddr strips prefix (case-insensitively) then the
// surrounding '<'/'>' from s.
func parseAngleAddr(s, prefix string) (string, error) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", ErrMalformedMailbox
	}
	rest := strings.TrimSpace(s[len(prefix):])
	if len(rest) < 2 || rest[0] != '<' || rest[len(rest)-1] != '>' {
		return "", ErrMalformedMailbox
	}
	return rest[1 : len(rest)-1], nil
}
