// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/cenkalti/backoff"
	"github.com/guregu/dynamo"
)

// DynamoReporter publishes ServerStat rows to a DynamoDB table. Writes are
// retried with cenkalti/backoff's default exponential schedule since a
// single missed fleet-telemetry tick is harmless but a wedged retry loop is
// not.
type DynamoReporter struct {
	table dynamo.Table
}

func NewDynamoReporter(sess *session.Session, stage string) *DynamoReporter {
	svc := dynamodb.New(sess)
	db := dynamo.NewFromIface(svc)
	return &DynamoReporter{table: db.Table("relay-" + stage + "-servers")}
}

func (r *DynamoReporter) ReportServerStat(stat ServerStat) error {
	return backoff.Retry(func() error {
		return r.table.Put(stat).Run()
	}, backoff.NewExponentialBackOff())
}

// TTLAfter returns a TTL attribute value d in the future, so stale rows
// (from a server that crashed without deregistering) expire on their own.
func TTLAfter(d time.Duration) int64 {
	return time.Now().Add(d).Unix()
}
