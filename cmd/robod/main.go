package main

import (
	"flag"
	"log"

	"github.com/robotalks/dualdrive/pkg/control"
	fx "github.com/robotalks/dualdrive/pkg/framework"
	env "github.com/robotalks/dualdrive/pkg/l1/env/controller"
	"github.com/robotalks/dualdrive/pkg/netcore"
	"github.com/robotalks/dualdrive/pkg/node"
)

func init() {
	env.SetupFlags()
	netcore.SetupFlags()
	control.SetupFlags()
	node.SetupFlags()
}

func main() {
	flag.Parse()

	conf := node.NewConfig()
	tuning, err := control.NewTuning()
	if err != nil {
		log.Fatalln(err)
	}
	opts := node.Options{Net: netcore.NewConfig(), Tuning: tuning}
	if conf.Role != node.RoleCtl {
		e := env.NewConfig().SetLabel("role", string(conf.Role)).MustNewEnv()
		opts.Registrars = e.Registrars
	}
	n, err := conf.NewNode(opts)
	if err != nil {
		log.Fatalln(err)
	}
	runner := fx.NewRunner().HandleSignals()
	runner.Go(n)
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
