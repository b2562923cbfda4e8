package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
	cvdomain "github.com/cvpratico/cv-builder/internal/cv"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a sample CV",
	Long:  `Seed the database with a sample CV submission for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		demoEmail := "maria.silva@mail.com"

		var count int64
		if err := gormDB.Model(&cvmodel.Cv{}).Where("email = ?", demoEmail).Count(&count).Error; err != nil {
			log.Fatalf("failed to check existing demo cv: %v", err)
		}
		if count > 0 {
			fmt.Println("demo cv already exists:", demoEmail)
			return
		}

		record, err := demoRecord(demoEmail)
		if err != nil {
			log.Fatalf("failed to build demo cv: %v", err)
		}

		if err := gormDB.Create(record).Error; err != nil {
			log.Fatalf("failed to insert demo cv: %v", err)
		}

		fmt.Printf("Seeded demo cv %d for %s\n", record.ID, demoEmail)
	},
}

func demoRecord(email string) (*cvmodel.Cv, error) {
	personal, err := json.Marshal(cvdomain.PersonalData{
		Name:    "Maria Silva",
		Email:   email,
		Phone:   "+55 11 91234-5678",
		Summary: "Analista de marketing com 6 anos de experiência em campanhas digitais e growth.",
	})
	if err != nil {
		return nil, err
	}

	experiences, err := json.Marshal([]cvdomain.Experience{
		{
			Company:     "Agência Horizonte",
			Position:    "Analista de Marketing Sênior",
			StartDate:   "2021-03",
			Description: "Planejamento e execução de campanhas de performance para varejo.",
		},
		{
			Company:     "Loja Vista",
			Position:    "Assistente de Marketing",
			StartDate:   "2018-01",
			EndDate:     "2021-02",
			Description: "Gestão de redes sociais e relatórios de métricas.",
		},
	})
	if err != nil {
		return nil, err
	}

	skills, err := json.Marshal(cvdomain.Skills{
		Technical: []string{"Google Ads", "Meta Ads", "SEO", "Google Analytics"},
		Soft:      []string{"Comunicação", "Trabalho em equipe"},
	})
	if err != nil {
		return nil, err
	}

	education, err := json.Marshal([]cvdomain.Education{
		{
			Institution: "Universidade de São Paulo",
			Degree:      "Bacharelado",
			Field:       "Publicidade e Propaganda",
			StartDate:   "2014",
			EndDate:     "2017",
		},
	})
	if err != nil {
		return nil, err
	}

	languages, err := json.Marshal([]cvdomain.Language{
		{Name: "Português", Level: "Nativo"},
		{Name: "Inglês", Level: "Avançado"},
	})
	if err != nil {
		return nil, err
	}

	return &cvmodel.Cv{
		Email:         email,
		PersonalData:  personal,
		Experiences:   experiences,
		Skills:        skills,
		Education:     education,
		Languages:     languages,
		PaymentStatus: cvmodel.PaymentStatusPending,
	}, nil
}
