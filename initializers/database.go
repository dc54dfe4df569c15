package initializers

import (
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

func ConnectToDB() {
	dialector, err := openDialector(Cfg.DBDriver, Cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	DB, err = gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	log.Printf("Connected to %s database.", Cfg.DBDriver)
}
