package coordinator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/rs/zerolog/log"
)

const sessionTimeout = 5 * time.Second

// ZKCoordinator implements the round barrier over zookeeper znodes. The
// master writes each round's snapshot to <base>/snapshot/<round>; every
// worker watches that node and writes its result to
// <base>/results/<round>/<workerID>.
type ZKCoordinator struct {
	conn     *zk.Conn
	basePath string
}

// ConnectZK connects to the zookeeper ensemble and ensures the base paths
// exist.
func ConnectZK(servers []string, basePath string) (*ZKCoordinator, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to zk ensemble: %w", err)
	}
	c := &ZKCoordinator{
		conn:     conn,
		basePath: strings.TrimSuffix(basePath, "/"),
	}
	if err := c.ensurePath(c.basePath + "/results"); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info().Msgf("Coordinator connected, base path %s", c.basePath)
	return c, nil
}

func (c *ZKCoordinator) snapshotPath(round int) string {
	return fmt.Sprintf("%s/snapshot/%d", c.basePath, round)
}

func (c *ZKCoordinator) resultPath(round, workerID int) string {
	return fmt.Sprintf("%s/results/%d/%d", c.basePath, round, workerID)
}

// WaitSnapshot blocks until the snapshot znode of the round exists, then
// returns its payload. This is the per-round barrier: the worker suspends
// here until the master finishes aggregating the previous round.
func (c *ZKCoordinator) WaitSnapshot(ctx context.Context, round int) ([]byte, error) {
	path := c.snapshotPath(round)
	for {
		exists, _, eventCh, err := c.conn.ExistsW(path)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", path, err)
		}
		if exists {
			data, _, err := c.conn.Get(path)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", path, err)
			}
			return data, nil
		}
		select {
		case <-eventCh:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// PublishResult writes this worker's result znode for the round.
func (c *ZKCoordinator) PublishResult(round, workerID int, data []byte) error {
	path := c.resultPath(round, workerID)
	if err := c.ensurePath(parentPath(path)); err != nil {
		return err
	}
	_, err := c.conn.Create(path, data, 0, zk.WorldACL(zk.PermAll))
	if err == zk.ErrNodeExists {
		// restarted worker republishing the same round
		_, stat, gerr := c.conn.Get(path)
		if gerr != nil {
			return fmt.Errorf("refreshing %s: %w", path, gerr)
		}
		_, err = c.conn.Set(path, data, stat.Version)
	}
	if err != nil {
		return fmt.Errorf("publishing %s: %w", path, err)
	}
	return nil
}

func (c *ZKCoordinator) Close() {
	c.conn.Close()
}

// ensurePath creates every missing segment of the path.
func (c *ZKCoordinator) ensurePath(path string) error {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	current := ""
	for _, segment := range segments {
		current += "/" + segment
		_, err := c.conn.Create(current, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return fmt.Errorf("creating %s: %w", current, err)
		}
	}
	return nil
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}
