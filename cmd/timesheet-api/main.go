// @title                      Timesheet API
// @version                    1.0
// @description                Timesheet entry, duplication, approval and project utilization for Teams.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import "github.com/HunaidHanfee-MSFT/timesheet-app/internal/cli"

func main() {
	cli.Execute()
}
