// Command token issues a jwtTokenString value for the Data API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/server/auth"
)

func main() {
	id := flag.String("id", "", "client id carried in the token")
	secret := flag.String("s", os.Getenv("MINDKEEPER_SECRET"), "HMAC secret shared with the server")
	ttl := flag.Duration("ttl", 24*time.Hour, "token validity")
	flag.Parse()

	if *id == "" || *secret == "" {
		flag.Usage()
		os.Exit(2)
	}

	tok, err := auth.GenerateToken(*id, []byte(*secret), *ttl)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(tok)
}
