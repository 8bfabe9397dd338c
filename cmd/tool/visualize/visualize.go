package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danl5/gotransition/pkg/controller"
	"github.com/danl5/gotransition/pkg/log"
	"github.com/danl5/gotransition/pkg/scheduler"
)

var (
	outputPath = flag.String("o", "./fsm_visual", "output path")
)

func main() {
	flag.Parse()

	c, err := controller.NewController(false, nil, scheduler.NewManual(), log.DefaultLogger)
	if err != nil {
		panic(err)
	}
	defer c.Close()
	visualStr := c.Visualize()

	f, err := os.OpenFile(*outputPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	_, err = f.WriteString(visualStr)
	if err != nil {
		panic(err)
	}

	fmt.Println("Visualization finished")
}
