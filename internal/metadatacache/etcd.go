package metadatacache

import (
	"context"
	"encoding/json"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	retry "github.com/sethvargo/go-retry"

	"github.com/pkg/errors"

	"github.com/dbrouter/routingcore/internal/netaddr"
)

// member is the JSON value stored at
// /metadata-cache/<name>/<role>/<index> by the control plane that
// populates etcd; it is deliberately small and additive so unknown
// fields from a newer control plane don't break this reader.
type member struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

// EtcdClient resolves cluster membership from an etcd v3 keyspace,
// one key per member under a role-scoped prefix.
type EtcdClient struct {
	cli     *clientv3.Client
	timeout time.Duration
}

// NewEtcdClient wraps an already-connected etcd client. timeout
// bounds each Lookup's round trip; a zero timeout means 2s.
func NewEtcdClient(cli *clientv3.Client, timeout time.Duration) *EtcdClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &EtcdClient{cli: cli, timeout: timeout}
}

func keyPrefix(cacheName string, role Role) string {
	return "/metadata-cache/" + cacheName + "/" + role.String() + "/"
}

// Lookup implements Client. The etcd round trip is retried on
// transient failures with a fibonacci backoff, the same pattern the
// control-plane etcd store uses for its own Get/Put calls, bounded by
// the same per-Lookup timeout rather than an unbounded retry budget.
func (c *EtcdClient) Lookup(cacheName string, role Role) ([]netaddr.Address, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var resp *clientv3.GetResponse
	backoff := retry.WithMaxRetries(7, retry.NewFibonacci(50*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.cli.Get(ctx, keyPrefix(cacheName, role), clientv3.WithPrefix())
		if err != nil {
			return retry.RetryableError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "metadata cache lookup for %q/%s", cacheName, role)
	}

	out := make([]netaddr.Address, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var m member
		if err := json.Unmarshal(kv.Value, &m); err != nil {
			return nil, errors.Wrapf(err, "decode metadata cache entry %s", kv.Key)
		}
		out = append(out, netaddr.New(m.Host, m.Port))
	}
	return out, nil
}

var _ Client = (*EtcdClient)(nil)
