package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/vitrine-next/internal/config"
	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/service"
)

func main() {
	var (
		issueToken bool
		tokenRoles string
		tokenTTL   time.Duration
	)
	flag.BoolVar(&issueToken, "token", false, "同时输出一个本地调试用的管理端令牌")
	flag.StringVar(&tokenRoles, "roles", "", "令牌携带的角色，逗号分隔；为空时签发超级管理员令牌")
	flag.DurationVar(&tokenTTL, "ttl", 24*time.Hour, "令牌有效期")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, models.ParseLogLevel(cfg.Database.LogLevel)); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	created, err := models.SeedCoupons(models.DB, models.DemoCoupons(time.Now()))
	if err != nil {
		stdLog.Fatalf("Failed to seed coupons: %v", err)
	}
	stdLog.Printf("Seeded %d coupon(s)", created)

	if !issueToken {
		return
	}
	if cfg.Server.Mode == "release" {
		stdLog.Fatalf("Refusing to issue a debug token in release mode")
	}
	claims := service.AdminClaims{AdminID: 1, Username: "seed"}
	if roles := splitRoles(tokenRoles); len(roles) > 0 {
		claims.Roles = roles
	} else {
		claims.IsSuper = true
	}
	token, err := service.NewTokenService(cfg.JWT, cfg.UserJWT).IssueAdminToken(claims, tokenTTL)
	if err != nil {
		stdLog.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func splitRoles(raw string) []string {
	var roles []string
	for _, role := range strings.Split(raw, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
