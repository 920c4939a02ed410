package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[AuthenticateMessage]     = (*AuthenticateCommand)(nil)
	_ gocmd.Commander[CompleteRedirectMessage] = (*CompleteRedirectCommand)(nil)
	_ gocmd.Commander[FetchMessage]            = (*FetchCommand)(nil)
)
