// Package main provides a CLI tool that predicts the payment method tokens the
// fake gateway assigns, so client test suites can assert on them up front.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	ccservice "fakegateway/internal/creditcard/service"
)

const defaultMerchantID = "fake-merchant"

type tokenOutput struct {
	Token      string            `json:"token"`
	Type       string            `json:"type"`
	MerchantID string            `json:"merchant_id,omitempty"`
	Last4      string            `json:"last_4,omitempty"`
	Usage      map[string]string `json:"usage"`
}

func main() {
	cardCmd := flag.NewFlagSet("card", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)

	cardNumber := cardCmd.String("number", "", "Card number (required)")
	cardMerchantID := cardCmd.String("merchant-id", defaultMerchantID, "Merchant id used in the request path")
	cardJSON := cardCmd.Bool("json", false, "Output as JSON")

	adminToken := adminCmd.String("token", os.Getenv("ADMIN_API_TOKEN"), "Admin API token. Defaults to $ADMIN_API_TOKEN.")
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "card":
		cardCmd.Parse(os.Args[2:])
		generateCardToken(*cardNumber, *cardMerchantID, *cardJSON)
	case "admin":
		adminCmd.Parse(os.Args[2:])
		showAdminToken(*adminToken, *adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Predict fake gateway tokens

Usage:
  tokengen <command> [flags]

Commands:
  card      Print the token a card will be stored under
  admin     Show the header for the /_fake control surface

Examples:
  # Token for a card created under the default merchant
  tokengen card -number 4111111111111111

  # Token for a specific merchant
  tokengen card -number 4111111111111111 -merchant-id my-merchant

  # Output as JSON
  tokengen card -number 4111111111111111 -json

Use "tokengen <command> -h" for more information about a command.`)
}

func generateCardToken(number, merchantID string, jsonOutput bool) {
	number = strings.TrimSpace(number)
	if number == "" {
		fmt.Fprintln(os.Stderr, "Error: -number is required")
		os.Exit(1)
	}

	token := ccservice.GenerateToken(number, merchantID)
	last4 := number
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:      token,
			Type:       "payment_method_token",
			MerchantID: merchantID,
			Last4:      last4,
			Usage: map[string]string{
				"find": fmt.Sprintf("GET /merchants/%s/payment_methods/any/%s", merchantID, token),
			},
		})
		return
	}

	fmt.Println("Payment Method Token")
	fmt.Println("====================")
	fmt.Printf("Merchant ID: %s\n", merchantID)
	fmt.Printf("Last 4:      %s\n", last4)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl --compressed http://localhost:3000/merchants/%s/payment_methods/any/%s\n", merchantID, token)
}

func showAdminToken(token string, jsonOutput bool) {
	header := "X-Admin-Token: " + token
	note := "Sent on every /_fake request"
	if token == "" {
		header = ""
		note = "ADMIN_API_TOKEN is unset; /_fake is open"
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token: token,
			Type:  "admin_token",
			Usage: map[string]string{
				"header": header,
				"note":   note,
			},
		})
		return
	}

	fmt.Println("Admin API Token")
	fmt.Println("===============")
	if token == "" {
		fmt.Println("Note: " + note)
		return
	}
	fmt.Printf("Token: %s\n", token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"" + header + "\" http://localhost:3000/_fake/stats")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
