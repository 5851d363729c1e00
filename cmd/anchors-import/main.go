// anchors-import：把锚点 JSON 写入 _geosanity_anchors，供 ANCHORS_SOURCE=db 使用
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"vpn-geosanity/internal/anchors"
	"vpn-geosanity/internal/migrate"
	"vpn-geosanity/internal/store"
	"vpn-geosanity/internal/utils"
)

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	s, _ := r.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func usage() {
	fmt.Println("usage: anchors-import [--env <file.env>] [--list] <anchors.json>")
}

func main() {
	var envFile, path string
	list := false
	for i := 1; i < len(os.Args); i++ {
		switch {
		case os.Args[i] == "--env" && i+1 < len(os.Args):
			envFile = os.Args[i+1]
			i++
		case strings.HasSuffix(os.Args[i], ".env"):
			envFile = os.Args[i]
		case os.Args[i] == "--list":
			list = true
		case os.Args[i] == "-h" || os.Args[i] == "--help":
			usage()
			return
		default:
			path = os.Args[i]
		}
	}
	if path == "" && !list {
		usage()
		os.Exit(2)
	}
	var db *sql.DB
	var err error
	if envFile != "" {
		_ = godotenv.Load(envFile)
		db, err = utils.OpenPostgresFromEnv()
	} else {
		r := bufio.NewReader(os.Stdin)
		fmt.Println("输入数据库连接参数，回车使用默认值")
		host := prompt(r, "PG_HOST", "127.0.0.1")
		port := prompt(r, "PG_PORT", "5432")
		user := prompt(r, "PG_USER", "postgres")
		pass := prompt(r, "PG_PASSWORD", "")
		name := prompt(r, "PG_DB", "geosanity")
		ssl := prompt(r, "PG_SSLMODE", "disable")
		dsn := "postgres://" + user
		if pass != "" {
			dsn += ":" + pass
		}
		dsn += "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
		db, err = utils.OpenPostgres(dsn)
	}
	if err != nil {
		fmt.Println("db error:", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		fmt.Println("schema error:", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	ctx := context.Background()

	if path != "" {
		tbl, err := anchors.LoadJSON(path)
		if err != nil {
			fmt.Println("load error:", err)
			os.Exit(1)
		}
		n, err := st.UpsertAnchors(ctx, tbl)
		if err != nil {
			fmt.Println("import error:", err)
			os.Exit(1)
		}
		fmt.Printf("imported %d anchors from %s\n", n, path)
	}
	if list {
		tbl, err := st.LoadAnchors(ctx)
		if err != nil {
			fmt.Println("list error:", err)
			os.Exit(1)
		}
		for _, id := range tbl.IDs() {
			a := tbl[id]
			fmt.Printf("%s -> %.4f, %.4f | %s | %s | %s\n", id, a.Lat, a.Lon, a.IPv4, a.City, a.Country)
		}
	}
}
