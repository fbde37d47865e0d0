// Package auth stores market-data provider API keys.
//
// Keys are looked up, in order, in the system keychain (go-keyring), an
// encrypted file in the user config directory, and STOCKCRAWLER_<PROVIDER>_API_KEY
// environment variables. The encrypted file is unlocked with
// STOCKCRAWLER_PASSPHRASE or a generated passphrase kept beside it.
package auth
