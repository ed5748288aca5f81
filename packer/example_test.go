package packer_test

import (
	"context"
	"fmt"

	"github.com/katalvlaran/voxbrick/brick"
	"github.com/katalvlaran/voxbrick/packer"
	"github.com/katalvlaran/voxbrick/voxel"
)

// ExamplePack packs a 4x4x3 block with two strategies. The default ranking
// lays three 4x4 plates; height priority stands two 4x2 bricks instead.
func ExamplePack() {
	g, _ := voxel.New(brick.Dims{X: 4, Y: 4, Z: 3})
	g.Fill(brick.Box{Max: [3]int{4, 4, 3}})

	for _, st := range []packer.Strategy{packer.StrategyDefault, packer.StrategyHeight} {
		opts := packer.DefaultOptions()
		opts.Strategy = st
		res, err := packer.Pack(context.Background(), g, opts)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("%s:\n%s", st, res.Structure.Txt())
	}
	// Output:
	// default:
	// 4x4x1 (0,0,0)
	// 4x4x1 (0,0,1)
	// 4x4x1 (0,0,2)
	// heightpriority:
	// 4x2x3 (0,0,0)
	// 4x2x3 (0,2,0)
}
