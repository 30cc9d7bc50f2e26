package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/watarui/wauth/internal/pkg/goerror"
	"github.com/watarui/wauth/internal/pkg/instrument"
	"github.com/watarui/wauth/internal/vault/entity"
)

const (
	attrSiteName = "site_name"
	attrSecret   = "secret"
)

// DynamoDBOptions configures the DynamoDB driver. The table must have the
// string partition key "site_name".
type DynamoDBOptions struct {
	Table   string
	Region  string
	Profile string
	// Endpoint targets DynamoDB Local or LocalStack.
	Endpoint string
}

// DynamoDB stores one item per site.
type DynamoDB struct {
	tracing
	client *dynamodb.Client
	table  string
	// scanLimit caps items per scan page; zero lets DynamoDB page at 1 MB.
	scanLimit int32
}

// NewDynamoDB loads the shared AWS config (honouring Profile) and builds a client.
func NewDynamoDB(ctx context.Context, opts DynamoDBOptions, ins instrument.Instrumentation) (*DynamoDB, error) {
	if opts.Table == "" {
		return nil, errors.New("store: dynamodb table is required")
	}

	cfgOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		cfgOpts = append(cfgOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("store: load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return NewDynamoDBWithClient(client, opts.Table, ins), nil
}

// NewDynamoDBWithClient wraps an existing client.
func NewDynamoDBWithClient(client *dynamodb.Client, table string, ins instrument.Instrumentation) *DynamoDB {
	return &DynamoDB{tracing: newTracing(ins, "dynamodb"), client: client, table: table}
}

func siteKey(siteName string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSiteName: &types.AttributeValueMemberS{Value: siteName},
	}
}

func siteItem(site entity.Site) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSiteName: &types.AttributeValueMemberS{Value: site.Name},
		attrSecret:   &types.AttributeValueMemberS{Value: site.Secret},
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, bool) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return v.Value, true
}

func (d *DynamoDB) Put(ctx context.Context, site entity.Site) (err error) {
	ctx, span := d.startSpan(ctx, "Put", site.Name)
	defer func() { d.endSpan(span, err) }()

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      siteItem(site),
	})
	return err
}

func (d *DynamoDB) Create(ctx context.Context, site entity.Site) (err error) {
	ctx, span := d.startSpan(ctx, "Create", site.Name)
	defer func() { d.endSpan(span, err) }()

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                siteItem(site),
		ConditionExpression: aws.String("attribute_not_exists(" + attrSiteName + ")"),
	})

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		err = goerror.ErrConflict
	}
	return err
}

func (d *DynamoDB) Delete(ctx context.Context, siteName string) (deleted bool, err error) {
	ctx, span := d.startSpan(ctx, "Delete", siteName)
	defer func() { d.endSpan(span, err) }()

	out, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(d.table),
		Key:          siteKey(siteName),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, err
	}

	return len(out.Attributes) > 0, nil
}

func (d *DynamoDB) Get(ctx context.Context, siteName string) (_ *entity.Site, err error) {
	ctx, span := d.startSpan(ctx, "Get", siteName)
	defer func() { d.endSpan(span, err) }()

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            siteKey(siteName),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, goerror.ErrNotFound
	}

	secret, ok := stringAttr(out.Item, attrSecret)
	if !ok {
		return nil, fmt.Errorf("store: item %q has no string %s attribute", siteName, attrSecret)
	}

	return &entity.Site{Name: siteName, Secret: secret}, nil
}

// ListSiteNames scans the table page by page, projecting only the key.
func (d *DynamoDB) ListSiteNames(ctx context.Context) (_ []string, err error) {
	ctx, span := d.startSpan(ctx, "ListSiteNames", "")
	defer func() { d.endSpan(span, err) }()

	in := &dynamodb.ScanInput{
		TableName:            aws.String(d.table),
		ProjectionExpression: aws.String(attrSiteName),
	}
	if d.scanLimit > 0 {
		in.Limit = aws.Int32(d.scanLimit)
	}
	pager := dynamodb.NewScanPaginator(d.client, in)

	names := make([]string, 0)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			if name, ok := stringAttr(item, attrSiteName); ok {
				names = append(names, name)
			}
		}
	}

	return names, nil
}

func (d *DynamoDB) Exists(ctx context.Context, siteName string) (_ bool, err error) {
	ctx, span := d.startSpan(ctx, "Exists", siteName)
	defer func() { d.endSpan(span, err) }()

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(d.table),
		Key:                  siteKey(siteName),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String(attrSiteName),
	})
	if err != nil {
		return false, err
	}

	return len(out.Item) > 0, nil
}

func (d *DynamoDB) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(d.table)})
	return err
}

func (d *DynamoDB) Close() error {
	return nil
}
