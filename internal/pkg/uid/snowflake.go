package uid

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates int64 ids with bwmarrin/snowflake.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator whose node number is derived from the
// hostname, so replicas behind one database do not collide.
func NewSnowflake() (*Snowflake, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	return NewSnowflakeNode(nodeFromHost(host))
}

// NewSnowflakeNode builds a generator for an explicit node number (0-1023).
func NewSnowflakeNode(n int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(n)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func nodeFromHost(host string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return int64(h.Sum32() % 1024)
}
