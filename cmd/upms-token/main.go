// upms-token mints a token pair for a challenger. The backend has no
// login surface, so operators issue tokens with this tool and hand them
// to the frontend or to scripts.
package main

import (
	"flag"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/upms-lab/upms-backend/dao/model"
	"github.com/upms-lab/upms-backend/dao/query"
	"github.com/upms-lab/upms-backend/internal/util"
)

func main() {
	challengerID := flag.Uint("challenger-id", 0, "challenger to mint tokens for")
	flag.Parse()
	if *challengerID == 0 {
		klog.Fatal("--challenger-id is required")
	}

	db := query.GetDB()
	var challenger model.Challenger
	if err := db.First(&challenger, *challengerID).Error; err != nil {
		klog.Fatalf("challenger %d: %v", *challengerID, err)
	}

	msg := util.JWTMessage{
		ChallengerID: challenger.ID,
		ChapterID:    challenger.ChapterID,
		Name:         challenger.Name,
		Role:         challenger.Role,
	}
	access, refresh, err := util.GetTokenMgr().CreateTokens(&msg)
	if err != nil {
		klog.Fatalf("failed to create tokens: %v", err)
	}

	fmt.Printf("access token:\n%s\n\nrefresh token:\n%s\n", access, refresh)
}
