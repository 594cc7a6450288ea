package main

import (
	"context"
	"fmt"

	"github.com/a-h/policybrief"
)

type VersionCommand struct {
}

func (c VersionCommand) Run(ctx context.Context) (err error) {
	fmt.Println(policybrief.Version)
	return nil
}
