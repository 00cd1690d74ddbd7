// mint-service-token prints a JWT for the /internal ops endpoints.
//
// Usage:
//   API_SECRET=... go run ./cmd/mint-service-token --id 1 --role Admin
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bombersbar/backend/models"
	"github.com/bombersbar/backend/utils"
)

func main() {
	id := flag.Int("id", 0, "Caller id embedded in the token")
	role := flag.String("role", string(models.UserRoleAdmin), "Role claim (Admin, FC, Member)")
	flag.Parse()

	if _, err := models.ParseUserRole(*role); err != nil {
		fmt.Fprintf(os.Stderr, "invalid role %q\n", *role)
		os.Exit(1)
	}

	token, err := utils.JwtGenerate(*id, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
