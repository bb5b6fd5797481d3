//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "resort_concierge/internal/adapters/http_server"
	redisad "resort_concierge/internal/adapters/redis"
	"resort_concierge/internal/app"
	mysqlrepo "resort_concierge/internal/storage/mysql"
	"resort_concierge/internal/tools"
)

// ---------- helpers ----------
func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func callTool(t *testing.T, base, name string, args map[string]any, out any) {
	t.Helper()
	body, _ := json.Marshal(args)
	res, err := http.Post(base+"/v1/tools/"+name, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", name, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("%s: status %d", name, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		t.Fatalf("%s: decode: %v", name, err)
	}
}

const seedSQL = `
INSERT INTO resorts (id, name, slug, city, state, country, location_types) VALUES
  (1, 'Club Wyndham Bonnet Creek', NULL, 'Orlando', 'FL', 'US', 'theme park'),
  (2, 'Pine Lodge', 'pine-lodge', 'Aspen', 'CO', 'US', 'mountain');
INSERT INTO unit_types (id, resort_id, name, sleeps) VALUES (10, 1, 'Two Bedroom Deluxe', '8'), (20, 2, 'Cabin', '4');
INSERT INTO users (id, first_name, last_name, email) VALUES (7, 'Dana', 'Reyes', 'dana@example.com');
`

// ---------- the test ----------
func TestHTTP_EndToEnd_SearchAndBook(t *testing.T) {
	// Start isolated MySQL container
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=resorts",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "resorts")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	if _, err := db.Exec(seedSQL); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// December listings a year out, relative to the real clock
	dec := time.Date(time.Now().Year()+1, time.December, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		in := dec.AddDate(0, 0, i*3)
		if _, err := db.Exec(
			`INSERT INTO listings (resort_id, unit_type_id, price, check_in, check_out, cancellation_policy, cancellation_date)
			 VALUES (1, 10, ?, ?, ?, 'moderate', '0000-00-00')`,
			fmt.Sprintf("%d.00", 500-i*50), in, in.AddDate(0, 0, 4)); err != nil {
			t.Fatalf("seed listing: %v", err)
		}
	}
	if _, err := db.Exec(`INSERT INTO listings (resort_id, unit_type_id, price, check_in, check_out) VALUES (2, 20, '-700', ?, ?)`,
		dec, dec.AddDate(0, 0, 7)); err != nil {
		t.Fatalf("seed listing: %v", err)
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	// Full stack: mysql repo, redis cache, services, tools, chi server
	repo := mysqlrepo.New(db)
	asm := app.NewAssembler(app.DefaultPolicies(), "https://book.test/resorts/")
	reg := tools.NewRegistry(tools.All(
		app.NewSearchService(repo, app.DefaultPriceTiers(), asm, time.Now),
		app.NewQueryService(repo, cache, time.Minute, asm),
		app.NewBookingService(repo, time.Now),
	)...)
	srv := server.New(10 * time.Second)
	srv.MountHandlers(&server.Handlers{Tools: reg, Ready: func(ctx context.Context) error { return cache.Ping(ctx) }})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	// Search: Bonnet Creek in December, cheapest first
	var search app.SearchResponse
	callTool(t, ts.URL, "search_listings", map[string]any{
		"resort_name": "Bonnet Creek",
		"month":       "Dec",
		"year":        dec.Year(),
		"price_sort":  "asc",
	}, &search)
	if search.Error != "" {
		t.Fatalf("search error: %s", search.Error)
	}
	if len(search.Results) != 5 || search.TotalListingsForResort != 5 {
		t.Fatalf("unexpected search: %+v", search)
	}
	first := search.Results[0]
	if first.Price != "from $300.00 per night" || first.Sleeps == nil || *first.Sleeps != 8 {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if first.CancellationInfo == "" {
		t.Fatalf("cancellation fields: %+v", first)
	}
	if search.DateWindow == nil || search.DateWindow.From != dec.Format("2006-01-02") {
		t.Fatalf("date window: %+v", search.DateWindow)
	}

	// Highest tier reads the magnitude of the negative price
	var highest app.SearchResponse
	callTool(t, ts.URL, "search_listings", map[string]any{"month": "December", "year": dec.Year(), "price_sort": "highest"}, &highest)
	if len(highest.Results) != 1 || highest.Results[0].ResortName != "Pine Lodge" {
		t.Fatalf("unexpected highest tier: %+v", highest)
	}

	// Resort details twice: the second read is a cache hit
	var rv app.ResortView
	callTool(t, ts.URL, "get_resort_details", map[string]any{"resort_id": 1}, &rv)
	if rv.Name != "Club Wyndham Bonnet Creek" || rv.ListingCount != 5 {
		t.Fatalf("resort: %+v", rv)
	}
	if !mr.Exists("resort:1") {
		t.Fatalf("expected resort:1 to be cached")
	}

	// Book the cheapest listing and read it back
	var bv app.BookingView
	callTool(t, ts.URL, "create_booking", map[string]any{"user_id": 7, "listing_id": first.ID, "guests": 4}, &bv)
	if bv.Reference == "" || bv.Guests != 4 {
		t.Fatalf("booking: %+v", bv)
	}
	var mine struct {
		Bookings []app.BookingView `json:"bookings"`
	}
	callTool(t, ts.URL, "get_user_bookings", map[string]any{"user_id": 7}, &mine)
	if len(mine.Bookings) != 1 || mine.Bookings[0].Reference != bv.Reference {
		t.Fatalf("bookings: %+v", mine.Bookings)
	}
}
