package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const (
	urlFlagName    = "url"
	actorFlagName  = "actor"
	caseIdFlagName = "case-id"
	txJsonFlagName = "tx-json"
	memoFlagName   = "memo"
)

var (
	urlFlag = &cli.StringFlag{
		Name:  urlFlagName,
		Usage: "the url where to reach the custody daemon",
		Value: "http://127.0.0.1:7470",
	}
	actorFlag = &cli.StringFlag{
		Name:  actorFlagName,
		Usage: "member id to act as",
	}
	caseIdFlag = &cli.StringFlag{
		Name:     caseIdFlagName,
		Usage:    "inheritance case id",
		Required: true,
	}
	txJsonFlag = &cli.StringFlag{
		Name:     txJsonFlagName,
		Usage:    "distribution transaction as tx_json",
		Required: true,
	}
	memoFlag = &cli.StringFlag{
		Name:  memoFlagName,
		Usage: "memo the heirs' signatures must carry",
	}
)

var assetLockCmd = &cli.Command{
	Name:  "asset-lock",
	Usage: "show the asset lock state of a case",
	Flags: []cli.Flag{caseIdFlag},
	Action: func(ctx *cli.Context) error {
		url := fmt.Sprintf(
			"%s/api/v1/cases/%s/asset-lock",
			ctx.String(urlFlagName), ctx.String(caseIdFlagName),
		)
		body, err := get(url, ctx.String(actorFlagName))
		if err != nil {
			return err
		}
		fmt.Println(body)
		return nil
	},
}

var signerListCmd = &cli.Command{
	Name:  "signer-list",
	Usage: "show the signer list and collected signatures of a case",
	Flags: []cli.Flag{caseIdFlag},
	Action: func(ctx *cli.Context) error {
		url := fmt.Sprintf(
			"%s/api/v1/cases/%s/signer-list",
			ctx.String(urlFlagName), ctx.String(caseIdFlagName),
		)
		body, err := get(url, ctx.String(actorFlagName))
		if err != nil {
			return err
		}
		fmt.Println(body)
		return nil
	},
}

var prepareApprovalCmd = &cli.Command{
	Name:  "prepare-approval",
	Usage: "system-sign a distribution transaction and open it for heir signatures",
	Flags: []cli.Flag{caseIdFlag, txJsonFlag, memoFlag},
	Action: func(ctx *cli.Context) error {
		url := fmt.Sprintf(
			"%s/api/v1/cases/%s/approval/prepare",
			ctx.String(urlFlagName), ctx.String(caseIdFlagName),
		)
		payload := map[string]string{
			"txJson": ctx.String(txJsonFlagName),
			"memo":   ctx.String(memoFlagName),
		}
		body, err := post(url, ctx.String(actorFlagName), payload)
		if err != nil {
			return err
		}
		fmt.Println(body)
		return nil
	},
}
