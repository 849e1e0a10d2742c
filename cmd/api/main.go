package main

import (
	"context"
	"flag"
	"log"

	"github.com/asadsehto/CareToShare/internal/config"
	"github.com/asadsehto/CareToShare/internal/model"
	"github.com/asadsehto/CareToShare/internal/pkg"
	"github.com/asadsehto/CareToShare/internal/repository/mysql"
	"github.com/asadsehto/CareToShare/internal/repository/redis"
	"github.com/asadsehto/CareToShare/internal/router"
	"github.com/asadsehto/CareToShare/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := mysql.InitDB(cfg.MySQL.DSN); err != nil {
		log.Fatalf("init mysql: %v", err)
	}

	if err := redis.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("init redis: %v", err)
	}
	defer redis.Close()

	// 自动建表（开发阶段 OK）
	if err := mysql.DB.AutoMigrate(
		&model.User{},
		&model.Class{},
		&model.ClassMember{},
		&model.ClassJoinRequest{},
		&model.MembershipOutbox{},
		&model.File{},
		&model.FileLike{},
		&model.Comment{},
		&model.Device{},
		&model.DevicePhoto{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	pkg.ConfigureJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// 邮件通知可选，没配 SMTP 就不发
	var notifier *service.JoinNotifier
	if cfg.SMTP.Enabled {
		notifier = service.NewJoinNotifier(pkg.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	// kafka 可选，开了才跑 outbox relayer
	if cfg.Kafka.Enabled {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			log.Fatalf("init kafka: %v", err)
		}
		defer producer.Close()

		relayer := service.NewOutboxRelayer(producer)
		go relayer.Run(context.Background())
	}

	r := router.InitRouter(notifier)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
