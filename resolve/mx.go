// SPDX-License-Identifier: GPL-3.0-or-later

package resolve

import (
	"context"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"github.com/rainsocket/rain"
)

// MXRecord is a single MX answer: a preference value and the
// exchanger hostname.
type MXRecord struct {
	Preference uint16
	Exchanger  string
}

// LogContext carries the structured-logging dependencies for
// [LookupMX].
type LogContext struct {
	ErrClassifier rain.ErrClassifier
	Logger        rain.SLogger
	TimeNow       func() time.Time
}

func (lc LogContext) logger() rain.SLogger {
	if lc.Logger != nil {
		return lc.Logger
	}
	return rain.DefaultSLogger()
}

func (lc LogContext) errClassifier() rain.ErrClassifier {
	if lc.ErrClassifier != nil {
		return lc.ErrClassifier
	}
	return rain.DefaultErrClassifier
}

func (lc LogContext) timeNow() time.Time {
	if lc.TimeNow != nil {
		return lc.TimeNow()
	}
	return time.Now()
}

// LookupMX resolves the MX records for host.Node, sorted ascending by
// preference, using a recursive resolver reachable at resolverAddr
// (e.g. "8.8.8.8:53").
func LookupMX(ctx context.Context, host Host, resolverAddr string, lc LogContext) ([]MXRecord, error) {
	t0 := lc.timeNow()
	lc.logger().Info("mxLookupStart", "node", host.Node, "t", t0)

	records, err := lookupMX(ctx, host.Node, resolverAddr)

	fields := []any{"node", host.Node, "t0", t0, "t", lc.timeNow()}
	if err != nil {
		fields = append(fields, "err", err.Error(), "errClass", lc.errClassifier().Classify(err))
	}
	lc.logger().Info("mxLookupDone", fields...)
	return records, err
}

func lookupMX(ctx context.Context, node string, resolverAddr string) ([]MXRecord, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(node), dns.TypeMX)
	msg.RecursionDesired = true

	client := new(dns.Client)
	in, _, err := client.ExchangeContext(ctx, msg, resolverAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve: MX exchange failed: %w", err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("resolve: MX lookup returned rcode %d", in.Rcode)
	}

	var records []MXRecord
	for _, rr := range in.Answer {
		mx, ok := rr.(*dns.MX)
		if !ok {
			continue
		}
		records = append(records, MXRecord{
			Preference: mx.Preference,
			Exchanger:  mx.Mx,
		})
	}
	sortMXRecords(records)
	return records, nil
}
