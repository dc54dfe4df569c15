package initializers

import (
	"log"

	"github.com/Kariqs/megano-api/models"
)

func SyncDatabase() {
	if err := models.Migrate(DB); err != nil {
		log.Fatal("Database sync failed: ", err)
	}
	log.Println("Database synced successfully.")
}
