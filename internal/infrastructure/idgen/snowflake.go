package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Bit layout keeps ids below 2^53 so they survive JSON number decoding in browsers:
// 41 bits of milliseconds since 2024-01-01 UTC, 4 node bits, 8 step bits.
const (
	nodeBits = 4
	stepBits = 8
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var configureOnce sync.Once

func configure() {
	snowflake.Epoch = epoch.UnixMilli()
	snowflake.NodeBits = nodeBits
	snowflake.StepBits = stepBits
}

// MaxNode is the largest accepted node number
const MaxNode = 1<<nodeBits - 1

// Generator hands out line item ids from a snowflake node
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for node (0..MaxNode)
func NewGenerator(node int64) (*Generator, error) {
	configureOnce.Do(configure)

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", node, err)
	}
	return &Generator{node: n}, nil
}

// NextID returns a new id, strictly increasing for this generator
func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}
