// Package e2e provides end-to-end tests for the complete documentation flow:
// parse, resolve, render and write, through the wired application.
package e2e

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/artpar/api2html/bootstrap"
	"github.com/artpar/api2html/config"
	"github.com/artpar/api2html/core/formatter"
)

const shop = "testdata/shop.yaml"

// setupTestApp wires the application with output going to a temp file.
func setupTestApp(t *testing.T, format string) (*bootstrap.App, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out")
	a, err := bootstrap.New(bootstrap.Options{
		LogOutput: io.Discard,
		Override: func(c *config.Config) {
			c.Output.Format = format
			c.Output.Path = out
		},
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return a, out
}

func readFragments(t *testing.T, path string) []formatter.Fragment {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	var frags []formatter.Fragment
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var frag formatter.Fragment
		if err := json.Unmarshal(sc.Bytes(), &frag); err != nil {
			t.Fatalf("bad json line %q: %v", sc.Text(), err)
		}
		frags = append(frags, frag)
	}
	return frags
}

// TestE2E_AllSchemas checks the whole flow on a document with cycles, an
// alias entry, a composed schema and inline definitions.
func TestE2E_AllSchemas(t *testing.T) {
	a, out := setupTestApp(t, "json")

	report, err := a.Generate(context.Background(), shop, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.Schemas != 6 {
		t.Errorf("Schemas = %d, want 6", report.Schemas)
	}
	if report.Duplicates != 6 {
		t.Errorf("Duplicates = %d, want 6", report.Duplicates)
	}

	frags := readFragments(t, out)

	var got []string
	for _, f := range frags {
		got = append(got, f.Template+":"+f.ID+":"+f.Title)
	}
	want := []string{
		"object:Customer:Customer",
		"object:Order:Order",
		"object:Order.lines[]:LinesItem",
		"composed:Payment:Payment",
		"object:Card:Card",
		"object:Payment|1:PaymentOption2",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("fragments =\n  %v\nwant\n  %v", got, want)
	}

	customer := frags[0]
	if customer.Description != "Someone who orders." {
		t.Errorf("description = %q", customer.Description)
	}
	fields := map[string]formatter.Field{}
	for _, f := range customer.Fields {
		fields[f.Name] = f
	}
	if f := fields["id"]; !f.Required || f.Type != "String" || f.Format != "uuid" {
		t.Errorf("id field = %+v", f)
	}
	if f := fields["orders"]; f.Type != "Array<Order>" || f.Link != "Order" {
		t.Errorf("orders field = %+v", f)
	}
	if f := fields["tier"]; f.Type != "TierEnum" || f.Values != "gold, silver" {
		t.Errorf("tier field = %+v", f)
	}
	if f := fields["referrer"]; f.Type != "Customer" || f.Link != "Customer" {
		t.Errorf("referrer field = %+v", f)
	}

	for _, f := range frags[1].Fields {
		if f.Name == "state" && (f.Type != "ValuedEnum<StateEnum>" || f.Values != "open, shipped-late") {
			t.Errorf("state field = %+v", f)
		}
	}
}

// TestE2E_EveryCompoundRenderedOnce checks that a selection reaching the same
// schema along many paths still renders it once.
func TestE2E_EveryCompoundRenderedOnce(t *testing.T) {
	a, out := setupTestApp(t, "json")

	if _, err := a.Generate(context.Background(), shop, []string{"Payment", "Buyer", "Order", "Card"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	seen := map[string]int{}
	for _, f := range readFragments(t, out) {
		seen[f.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("%s rendered %d times", id, n)
		}
	}
	if len(seen) != 6 {
		t.Errorf("rendered %d schemas, want 6: %v", len(seen), seen)
	}
}

// TestE2E_Deterministic runs each format twice and compares the bytes.
func TestE2E_Deterministic(t *testing.T) {
	for _, format := range formatter.List() {
		t.Run(format, func(t *testing.T) {
			var outputs [2][]byte
			for i := range outputs {
				a, out := setupTestApp(t, format)
				if _, err := a.Generate(context.Background(), shop, nil); err != nil {
					t.Fatalf("Generate failed: %v", err)
				}
				data, err := os.ReadFile(out)
				if err != nil {
					t.Fatalf("read output: %v", err)
				}
				outputs[i] = data
			}
			if !bytes.Equal(outputs[0], outputs[1]) {
				t.Error("output differs between runs")
			}
			if len(outputs[0]) == 0 {
				t.Error("empty output")
			}
		})
	}
}

// TestE2E_HTMLPage checks the page frame and cross links.
func TestE2E_HTMLPage(t *testing.T) {
	a, out := setupTestApp(t, "html")
	if _, err := a.Generate(context.Background(), shop, []string{"Customer"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	page := string(data)
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<h1>Shop <small>2.0.0</small></h1>",
		`<h2 id="Customer">Customer</h2>`,
		`<a href="#Order">Array&lt;Order&gt;</a>`,
		`<h2 id="Payment">Payment</h2>`,
		"</body>\n</html>",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if n := strings.Count(page, `<h2 id="Customer">`); n != 1 {
		t.Errorf("Customer rendered %d times", n)
	}
}

// TestE2E_Server serves the document and fetches it back over HTTP.
func TestE2E_Server(t *testing.T) {
	a, _ := setupTestApp(t, "html")
	a.InitHTTPServer(shop)

	srv := httptest.NewServer(a.HTTPServer.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/schemas/Card?format=yaml")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "id: Card") || !strings.Contains(string(body), "name: number") {
		t.Errorf("unexpected body:\n%s", body)
	}

	resp2, err := http.Get(srv.URL + "/schemas/Ghost")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", resp2.StatusCode)
	}
}
